// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/httpaux/recovery"
	"github.com/xmidt-org/logscope/triage"
	"github.com/xmidt-org/sallust"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	recoveryStatusCode = 555

	defaultPrimaryAddress = ":6600"
	defaultHealthAddress  = ":6601"
	defaultMetricsAddress = ":6602"
	defaultMetricsPath    = "/metrics"
	defaultHealthPath     = "/health"
)

// ServerConfig configures one listener.
type ServerConfig struct {
	Address           string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Path is used by single route servers. (Optional)
	Path string
}

type ServersConfig struct {
	Primary ServerConfig
	Health  ServerConfig
	Metrics ServerConfig
}

func provideServers() fx.Option {
	return fx.Provide(
		func(v *viper.Viper) (ServersConfig, error) {
			var c ServersConfig
			if err := v.UnmarshalKey("servers", &c); err != nil {
				return c, err
			}
			setServerDefaults(&c.Primary, defaultPrimaryAddress, "")
			setServerDefaults(&c.Health, defaultHealthAddress, defaultHealthPath)
			setServerDefaults(&c.Metrics, defaultMetricsAddress, defaultMetricsPath)
			return c, nil
		},
		provideHealthHandler,
	)
}

func setServerDefaults(c *ServerConfig, address, path string) {
	if c.Address == "" {
		c.Address = address
	}
	if c.Path == "" {
		c.Path = path
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}
}

type PrimaryRouterIn struct {
	fx.In
	Config   ServersConfig
	Metrics  touchhttp.ServerInstrumenter `name:"servers.primary.metrics"`
	Tracing  candlelight.Tracing
	Health   HealthHandler
	Handlers PrimaryHandlersIn
	Logger   *zap.Logger
	LC       fx.Lifecycle
}

type PrimaryHandlersIn struct {
	fx.In
	AppConfig     triage.Handler `name:"app_config_handler"`
	Pods          triage.Handler `name:"pods_handler"`
	PodLogs       triage.Handler `name:"pod_logs_handler"`
	Summarize     triage.Handler `name:"summarize_handler"`
	Analyze       triage.Handler `name:"analyze_handler"`
	SendRCAEmail  triage.Handler `name:"send_rca_email_handler"`
	TrackDownload triage.Handler `name:"track_download_handler"`
	DownloadStats triage.Handler `name:"download_stats_handler"`
}

// BuildPrimaryRoutes mounts every operation on the primary server.
func BuildPrimaryRoutes(in PrimaryRouterIn) {
	router := newPrimaryRouter(in.Handlers, in.Health)

	options := []otelmux.Option{
		otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
		otelmux.WithPropagators(in.Tracing.Propagator()),
	}
	router.Use(
		otelmux.Middleware("server_primary", options...),
		candlelight.EchoFirstTraceNodeInfo(in.Tracing, false),
	)

	chain := alice.New(
		recovery.Middleware(recovery.WithStatusCode(recoveryStatusCode)),
		requestLogger(in.Logger),
		in.Metrics.Then,
	)
	bindServer(in.LC, in.Logger, "primary", in.Config.Primary, chain.Then(router))
}

func newPrimaryRouter(h PrimaryHandlersIn, health http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = triage.NewMethodNotAllowedHandler()
	router.Handle("/get-app-config", h.AppConfig).Methods(http.MethodPost)
	router.Handle("/get-pods", h.Pods).Methods(http.MethodPost)
	router.Handle("/get-pod-logs", h.PodLogs).Methods(http.MethodPost)
	router.Handle("/summarize", h.Summarize).Methods(http.MethodPost)
	router.Handle("/analyze", h.Analyze).Methods(http.MethodPost)
	router.Handle("/send-rca-email", h.SendRCAEmail).Methods(http.MethodPost)
	router.Handle("/track-download", h.TrackDownload).Methods(http.MethodPost)
	router.Handle("/download-stats", h.DownloadStats).Methods(http.MethodGet)
	router.Handle("/health", health).Methods(http.MethodGet)
	return router
}

type HealthRouterIn struct {
	fx.In
	Config  ServersConfig
	Metrics touchhttp.ServerInstrumenter `name:"servers.health.metrics"`
	Health  HealthHandler
	Logger  *zap.Logger
	LC      fx.Lifecycle
}

func BuildHealthRoutes(in HealthRouterIn) {
	router := mux.NewRouter()
	router.Handle(in.Config.Health.Path, in.Health).Methods(http.MethodGet)
	bindServer(in.LC, in.Logger, "health", in.Config.Health, in.Metrics.Then(router))
}

type MetricsRouterIn struct {
	fx.In
	Config   ServersConfig
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	LC       fx.Lifecycle
}

func BuildMetricsRoutes(in MetricsRouterIn) {
	router := mux.NewRouter()
	router.Handle(in.Config.Metrics.Path, promhttp.HandlerFor(in.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	bindServer(in.LC, in.Logger, "metrics", in.Config.Metrics, router)
}

// requestLogger puts a request scoped logger in the context for handlers
// that fetch it with sallust.Get.
func requestLogger(base *zap.Logger) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base.With(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remoteAddr", r.RemoteAddr),
			)
			next.ServeHTTP(w, r.WithContext(sallust.With(r.Context(), l)))
		})
	}
}

func bindServer(lc fx.Lifecycle, logger *zap.Logger, name string, c ServerConfig, h http.Handler) {
	logger = logger.With(zap.String("server", name), zap.String("address", c.Address))
	s := &http.Server{
		Addr:              c.Address,
		Handler:           h,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		ReadTimeout:       c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", s.Addr)
			if err != nil {
				return err
			}
			logger.Info("starting server")
			go func() {
				if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return s.Shutdown(ctx)
		},
	})
}
