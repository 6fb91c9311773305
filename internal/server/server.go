// Package server exposes the interview coach over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spigell/hh-interviewer/internal/auth"
	"github.com/spigell/hh-interviewer/internal/coach"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

const (
	DefaultListen         = ":5000"
	DefaultMaxUploadBytes = 10 << 20

	shutdownTimeout = 10 * time.Second
	userKey         = "user"
)

type Config struct {
	Listen         string
	AllowOrigins   []string
	MaxUploadBytes int64
	Debug          bool
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Coach    *coach.Coach
	Users    *auth.Users
	Tokens   *auth.Tokens
	Gatherer prometheus.Gatherer
}

type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
	logger *zap.Logger
	// wsWait is how long an idle websocket may go without a frame or pong.
	wsWait time.Duration
}

func New(cfg Config, deps Deps, log *zap.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithFields(log, zap.String("component", "server")),
		wsWait: wsPongWait,
	}
	s.engine = s.routes()

	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes
	r.Use(gin.Recovery(), s.accessLog())

	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	r.POST("/register", s.handleRegister)
	r.POST("/login", s.handleLogin)
	r.GET("/check-auth", s.handleCheckAuth)

	api := r.Group("/", s.requireAuth())
	{
		api.POST("/logout", s.handleLogout)
		api.POST("/upload", s.handleUpload)
		api.POST("/chat", s.handleChat)
		api.POST("/build_resume", s.handleBuildResume)
		api.GET("/status", s.handleStatus)
		api.GET("/ws", s.handleWebSocket)
	}

	return r
}

// Handler returns the HTTP handler with every route installed.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}

	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
