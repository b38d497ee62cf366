// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xmidt-org/logscope/model"
	"go.uber.org/zap"
)

const (
	defaultPort  = 587
	subjectBase  = "RCA Report"
	headerLayout = time.RFC1123Z
)

var (
	ErrNotConfigured    = errors.New("email delivery is not configured")
	ErrInvalidRecipient = errors.New("invalid recipient email address")
	ErrSendFailed       = errors.New("failed to send email")
)

// Config holds the outbound mail settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Report is one RCA email.
type Report struct {
	Email    string
	Analysis string
	PodName  string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier delivers RCA reports over SMTP.
type Notifier struct {
	config   Config
	send     SendFunc
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

func New(config Config, logger *zap.Logger) *Notifier {
	if config.Port == 0 {
		config.Port = defaultPort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		config:   config,
		send:     smtp.SendMail,
		validate: validator.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// Configured reports whether a mail host and sender are set.
func (n *Notifier) Configured() bool {
	return n.config.Host != "" && n.config.From != ""
}

// SendRCA emails the analysis to r.Email.
func (n *Notifier) SendRCA(ctx context.Context, r Report) error {
	err := model.RequireIdentifiers(
		model.Field{Name: "email", Value: r.Email},
		model.Field{Name: "analysis", Value: r.Analysis},
	)
	if err != nil {
		return err
	}

	to := strings.TrimSpace(r.Email)
	if err := n.validate.Var(to, "email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}
	if !n.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	addr := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))
	msg := n.message(to, r)
	if err := n.send(addr, auth, n.config.From, []string{to}, msg); err != nil {
		n.logger.Error("failed to send RCA email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("%w: %s", ErrSendFailed, err)
	}

	n.logger.Info("sent RCA email", zap.String("to", to), zap.String("pod", r.PodName))
	return nil
}

// Subject is "RCA Report - {pod}", or "RCA Report" without a pod.
func Subject(pod string) string {
	pod = headerSafe(pod)
	if pod == "" {
		return subjectBase
	}
	return subjectBase + " - " + pod
}

func (n *Notifier) message(to string, r Report) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(r.PodName))
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(headerLayout))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")

	b.WriteString("Root Cause Analysis Report\r\n")
	if pod := headerSafe(r.PodName); pod != "" {
		fmt.Fprintf(&b, "Pod: %s\r\n", pod)
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.TrimSpace(r.Analysis), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

// headerSafe folds every run of whitespace, line breaks included, into one
// space.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
