package prodpal

import (
	"context"
	"fmt"
	"github.com/gin-contrib/cors"
	ginPprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

const (
	pprofPrefix    = "/debug"
	apiPrefix      = "/api"
	apiHealthCheck = "/healthz"
	apiPathStatus  = "/status"
	apiPathStats   = "/stats"
	apiPathMetrics = "/metrics"
)

const xRequestIDHeader = "X-Request-ID"

// rootMessage is the plain-text body served at the root path, for
// hosting-platform health checks and the keep-alive pinger.
const rootMessage = "ProductivityPal Discord Bot is running!"

var structValidator = newStructValidator()

// newStructValidator returns a validator that reads the same `binding`
// tags gin uses.
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

type httpReply struct {
	Message string `json:"message"`
}

// StatusServer is the HTTP server exposing the bot's health check and
// status endpoints.
type StatusServer struct {
	config           *StatusServerConfig
	httpServer       *http.Server
	listener         net.Listener
	engine           *gin.Engine
	requestMetrics   map[string]int
	requestMetricsMu sync.Mutex
	logger           *slog.Logger
	p                *ProdPal
}

// botStatus is the JSON payload served at /api/status.
type botStatus struct {
	Connected       bool   `json:"connected"`
	Paused          bool   `json:"paused"`
	Uptime          string `json:"uptime"`
	ReminderCount   int    `json:"reminder_count"`
	PendingPrompts  int    `json:"pending_prompts"`
	Version         string `json:"version"`
	DatabaseType    string `json:"database_type"`
	KeepAliveActive bool   `json:"keep_alive_active"`
}

func newStatusServer(p *ProdPal, config *StatusServerConfig) (*StatusServer, error) {
	setupLogger := slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.LogLevel,
				AddSource: true,
			},
		),
	)

	r := gin.New()

	server := &StatusServer{
		config:         config,
		engine:         r,
		requestMetrics: map[string]int{},
		p:              p,
	}
	server.logger = setupLogger.With(loggerNameKey, "status_server")

	server.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           r,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	corsConfig := config.CORS.GINConfig()
	if len(corsConfig.AllowOrigins) == 0 && p.config.Development {
		corsConfig.AllowAllOrigins = true
	}

	if !p.config.Development {
		r.Use(gin.Recovery())
	}
	r.Use(
		requestIDMiddleware(),
		ginLoggingMiddleware(),
		metricMiddleware(server),
		cors.New(corsConfig),
	)

	r.GET("/", server.root)
	r.HEAD("/", server.root)
	r.GET(apiHealthCheck, server.healthCheck)

	api := r.Group(apiPrefix)
	api.GET(apiPathStatus, server.status)
	api.GET(apiPathStats, server.stats)
	api.GET(apiPathMetrics, server.metrics)

	if p.config.Development {
		ginPprof.Register(r, pprofPrefix)
	}

	return server, nil
}

// Serve listens and serves until the server is shut down or the listener
// closes.
func (s *StatusServer) Serve(ctx context.Context) error {
	if s.listener == nil {
		listenCfg := &net.ListenConfig{}
		ln, err := listenCfg.Listen(ctx, s.config.ListenNetwork, s.httpServer.Addr)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", s.httpServer.Addr, err)
		}
		s.listener = ln
	}
	s.logger.Info("status server listening", "addr", s.listener.Addr().String())
	return s.httpServer.Serve(s.listener)
}

func (s *StatusServer) root(c *gin.Context) {
	c.String(http.StatusOK, rootMessage)
}

func (s *StatusServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, httpReply{Message: "ok"})
}

func (s *StatusServer) status(c *gin.Context) {
	cfg := s.p.RuntimeConfig()
	var reminderCount int
	if s.p.reminder != nil {
		reminderCount = int(s.p.reminder.sequence.Load())
	}
	status := botStatus{
		Connected:       s.p.discord.connected.Load(),
		Paused:          cfg.Paused,
		Uptime:          time.Since(s.p.startedAt).Round(time.Second).String(),
		ReminderCount:   reminderCount,
		PendingPrompts:  s.p.pendingReplies.Pending(),
		Version:         Version,
		DatabaseType:    s.p.config.DatabaseType,
		KeepAliveActive: s.p.keepAlive != nil && s.p.keepAlive.active.Load(),
	}
	c.JSON(http.StatusOK, status)
}

// botStats holds per-table record counts, served at /api/stats.
type botStats struct {
	RemindersSent   int64 `json:"reminders_sent"`
	CheckIns        int64 `json:"check_ins"`
	JobApplications int64 `json:"job_applications"`
	CoachRequests   int64 `json:"coach_requests"`
	Messages        int64 `json:"messages"`
}

func (s *StatusServer) stats(c *gin.Context) {
	logger := ginContextLogger(c)

	var stats botStats
	targets := []struct {
		model any
		dest  *int64
	}{
		{&ReminderLog{}, &stats.RemindersSent},
		{&CheckIn{}, &stats.CheckIns},
		{&JobApplication{}, &stats.JobApplications},
		{&CoachLog{}, &stats.CoachRequests},
		{&DiscordMessage{}, &stats.Messages},
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	for _, target := range targets {
		target := target
		g.Go(
			func() error {
				return s.p.db.WithContext(ctx).Model(target.model).Count(
					target.dest,
				).Error
			},
		)
	}
	if err := g.Wait(); err != nil {
		logger.Error("error counting records", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpReply{Message: "error counting records"},
		)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *StatusServer) metrics(c *gin.Context) {
	s.requestMetricsMu.Lock()
	defer s.requestMetricsMu.Unlock()
	c.JSON(http.StatusOK, s.requestMetrics)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := generateRandomHexString(32)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(xRequestIDHeader, id)
		if requestID, exists := c.Get(xRequestIDHeader); exists {
			c.Header(xRequestIDHeader, requestID.(string))
		}
		c.Next()
	}
}

// ginContextLogger returns the slog.Logger from the given gin context,
// or, if it doesn't exist, creates a logger with request details included,
// and sets the logger in the context so the next call to ginContextLogger
// will return the new logger.
func ginContextLogger(c *gin.Context) *slog.Logger {
	var requestLogger *slog.Logger
	logger, ok := c.Get(string(loggerContextKey))
	if ok {
		requestLogger, ok = logger.(*slog.Logger)
		if ok {
			return requestLogger
		}
	}
	requestLogger = slog.Default()
	requestID, _ := c.Get(xRequestIDHeader)
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery
	if raw != "" {
		path = path + "?" + raw
	}

	requestLogger = requestLogger.With(
		slog.Group(
			"request",
			"method", c.Request.Method,
			"path", path,
			"remote_addr", c.Request.RemoteAddr,
			"remote_ip", c.RemoteIP(),
			"user_agent", c.Request.UserAgent(),
			"referer", c.Request.Referer(),
		),
		slog.Any(xRequestIDHeader, requestID),
	)
	c.Set(string(loggerContextKey), requestLogger)
	return requestLogger
}

// ginLoggingMiddleware returns a Gin middleware function for logging HTTP
// requests, including the request duration and any accumulated errors.
func ginLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := ginContextLogger(c)
		c.Next()
		latency := time.Since(start)

		var errs []error
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			errs = append(errs, *e)
		}
		if len(errs) > 0 {
			requestLogger.Error(
				fmt.Sprintf(
					"%s %s finished with errors",
					c.Request.Method,
					c.Request.URL,
				),
				"duration", latency,
				"errors", errs,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		} else {
			requestLogger.Info(
				fmt.Sprintf("%s %s finished", c.Request.Method, c.Request.URL),
				"duration", latency,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		}
	}
}

// metricMiddleware returns a Gin middleware function which increments the
// request count for each unique combination of HTTP method and URL path.
func metricMiddleware(s *StatusServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Next()

		s.requestMetricsMu.Lock()
		defer s.requestMetricsMu.Unlock()

		key := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		_, ok := s.requestMetrics[key]
		if !ok {
			s.requestMetrics[key] = 1
			return
		}
		s.requestMetrics[key]++
	}
}
