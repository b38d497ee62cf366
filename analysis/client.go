// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/xmidt-org/bascule/acquire"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Task selects the prompt and sampling parameters.
type Task int

const (
	TaskSummarize Task = iota
	TaskAnalyze
)

func (t Task) String() string {
	if t == TaskAnalyze {
		return "analyze"
	}
	return "summarize"
}

const (
	DefaultAddress = "https://api.together.xyz/v1"
	DefaultModel   = "meta-llama/Llama-3-8b-chat-hf"
	DefaultTimeout = 30 * time.Second

	// MaxInputRunes is the longest log text sent as is.
	MaxInputRunes   = 8000
	TruncatedMarker = "\n... (truncated for analysis)"

	chatCompletionsPath = "/chat/completions"
)

// Placeholders are texts a client shows before any logs are loaded.
var Placeholders = []string{
	"Waiting for execution...",
	"Fetching pod logs...",
}

type prompt struct {
	system      string
	userPrefix  string
	maxTokens   int
	temperature float32
	topP        float32
}

var prompts = map[Task]prompt{
	TaskSummarize: {
		system: `You are an expert DevOps engineer who specializes in analyzing application logs.
Provide a clear, concise summary that includes:
1. Overall status (Success/Failure/Warning)
2. Key events or operations performed
3. Any errors or warnings found
4. Performance metrics if available
Keep the summary under 200 words and use bullet points for clarity.`,
		userPrefix:  "Analyze and summarize this application log:\n\n",
		maxTokens:   400,
		temperature: 0.3,
		topP:        0.9,
	},
	TaskAnalyze: {
		system: `You are a senior DevOps engineer specializing in root cause analysis.
Analyze the provided logs and identify:
1. Primary errors or failures
2. Root cause of any issues
3. Impact assessment
4. Recommended actions to resolve
5. Prevention strategies

Be specific and actionable in your recommendations. If no errors are found, indicate successful execution.`,
		userPrefix:  "Perform root cause analysis on this log:\n\n",
		maxTokens:   600,
		temperature: 0.2,
		topP:        0.8,
	},
}

// ClientConfig contains config data for the text analysis client.
type ClientConfig struct {
	// Address is the service base URL, up to but excluding /chat/completions.
	// (Optional) Defaults to the Together AI endpoint.
	Address string

	// APIKey is sent as a bearer token. Without it every call fails with
	// ErrNotConfigured.
	APIKey string

	// Model defaults to DefaultModel.
	Model string

	// Timeout bounds each call. (Optional) Defaults to 30s.
	Timeout time.Duration

	// RateLimit caps outgoing requests per second. Zero means no limit.
	RateLimit float64
	RateBurst int

	// HTTPClient refers to the client that will be used to send requests.
	// (Optional) Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client talks to an OpenAI compatible chat completions service.
type Client struct {
	client    *http.Client
	auth      acquire.Acquirer
	url       string
	model     string
	timeout   time.Duration
	limiter   *rate.Limiter
	measures  *Measures
	getLogger func(context.Context) *zap.Logger
}

type response struct {
	Body []byte
	Code int
}

// NewClient builds a Client. A missing API key is not an error here.
func NewClient(config ClientConfig, measures *Measures, getLogger func(context.Context) *zap.Logger) (*Client, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}

	c := &Client{
		client:    config.HTTPClient,
		url:       strings.TrimSuffix(config.Address, "/") + chatCompletionsPath,
		model:     config.Model,
		timeout:   config.Timeout,
		measures:  measures,
		getLogger: getLogger,
	}

	if len(config.APIKey) > 0 {
		auth, err := acquire.NewFixedAuthAcquirer("Bearer " + config.APIKey)
		if err != nil {
			return nil, err
		}
		c.auth = auth
	}

	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return c, nil
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c.auth != nil
}

// Summarize produces a short status summary of a log.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.run(ctx, TaskSummarize, text)
}

// Analyze produces a root cause analysis of a log.
func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	return c.run(ctx, TaskAnalyze, text)
}

func (c *Client) run(ctx context.Context, task Task, text string) (string, error) {
	logger := c.getLogger(ctx)
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Stringer("task", task))

	text, truncated, err := prepareInput(text)
	if err != nil {
		c.count(task, RejectedOutcome)
		return "", err
	}
	if truncated {
		logger.Warn("log text truncated before analysis", zap.Int("maxRunes", MaxInputRunes))
	}
	if c.auth == nil {
		c.count(task, RejectedOutcome)
		return "", ErrNotConfigured
	}

	out, err := c.complete(ctx, task, text)
	if err != nil {
		logger.Error("text analysis failed", zap.Error(err))
		c.count(task, FailureOutcome)
		return "", err
	}

	logger.Info("text analysis succeeded")
	c.count(task, SuccessOutcome)
	return out, nil
}

func (c *Client) complete(ctx context.Context, task Task, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf(errWrappedFmt, ErrTimeout, err.Error())
		}
	}

	p := prompts[task]
	data, err := json.Marshal(openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.system},
			{Role: openai.ChatMessageRoleUser, Content: p.userPrefix + text},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		TopP:        p.topP,
	})
	if err != nil {
		return "", fmt.Errorf(errWrappedFmt, errJSONMarshal, err.Error())
	}

	resp, err := c.sendRequest(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if resp.Code != http.StatusOK {
		return "", &StatusError{Code: resp.Code, Body: string(resp.Body)}
	}

	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(resp.Body, &completion); err != nil {
		return "", fmt.Errorf(errWrappedFmt, errJSONUnmarshal, err.Error())
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(completion.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body io.Reader) (response, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return response{}, fmt.Errorf(errWrappedFmt, errNewRequestFailure, err.Error())
	}
	r.Header.Set("Content-Type", "application/json")
	if err := acquire.AddAuth(r, c.auth); err != nil {
		return response{}, fmt.Errorf(errWrappedFmt, errAuthFailure, err.Error())
	}

	resp, err := c.client.Do(r)
	if err != nil {
		return response{}, transportError(err)
	}
	defer resp.Body.Close()

	result := response{Code: resp.StatusCode}
	result.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return result, fmt.Errorf(errWrappedFmt, ErrTimeout, err.Error())
		}
		return result, fmt.Errorf(errWrappedFmt, errReadingBodyFailure, err.Error())
	}
	return result, nil
}

func (c *Client) count(task Task, outcome string) {
	if c.measures != nil && c.measures.Requests != nil {
		c.measures.Requests.WithLabelValues(task.String(), outcome).Inc()
	}
}

func transportError(err error) error {
	if isTimeout(err) {
		return fmt.Errorf(errWrappedFmt, ErrTimeout, err.Error())
	}
	return fmt.Errorf(errWrappedFmt, ErrNetwork, err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// prepareInput trims text, rejects empty input and placeholders, and
// truncates anything longer than MaxInputRunes.
func prepareInput(text string) (string, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, ErrNoInput
	}
	for _, p := range Placeholders {
		if text == p {
			return "", false, ErrNoInput
		}
	}
	if short := truncateRunes(text, MaxInputRunes); len(short) < len(text) {
		return short + TruncatedMarker, true, nil
	}
	return text, false, nil
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func validateConfig(config *ClientConfig) error {
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if !strings.HasPrefix(config.Address, "http://") && !strings.HasPrefix(config.Address, "https://") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, config.Address)
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return nil
}
