// Package server exposes the pipelines of one session to a local front end:
// a JSON API mirroring the orchestrator operations and a websocket stream of
// pipeline snapshots.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ytdlstem/ytdlstem/internal/lib"
	"github.com/ytdlstem/ytdlstem/internal/pipeline"
)

const shutdownTimeout = 5 * time.Second

// Server is the local bridge between a browser front end and a Session
type Server struct {
	session  *pipeline.Session
	engine   *gin.Engine
	upgrader websocket.Upgrader
	logger   *lib.Logger
}

// New builds the router for session. The caller owns the session and closes it.
func New(session *pipeline.Session, logger *lib.Logger) *Server {
	if logger == nil {
		logger = lib.NewNullLogger()
	}

	s := &Server{
		session: session,
		engine:  gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // bound to localhost
			},
		},
		logger: logger,
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler serving the bridge API
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Bridge server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Bridge server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/session", s.sessionInfo)

		p := api.Group("/pipelines/:kind")
		{
			p.GET("", s.snapshot)
			p.POST("/input", s.setInput)
			p.POST("/select", s.selectResult)
			p.POST("/upload", s.upload)
			p.POST("/options", s.setOptions)
			p.GET("/request", s.preview)
			p.POST("/submit", s.submit)
			p.GET("/artifacts", s.artifacts)
		}
	}

	// Snapshot stream
	s.engine.GET("/ws/:kind", s.stream)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Bridge request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
