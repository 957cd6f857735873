// Package server exposes the agent controllers over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"procagent/internal/agent"
	"procagent/internal/config"
	"procagent/internal/journal"
	"procagent/internal/logging"
	"procagent/internal/types"
	"procagent/internal/usage"
)

// Runner performs one mission and reports on it.
type Runner interface {
	Run(ctx context.Context, mission, stimulus string) (*agent.Report, error)
}

// History reads recorded invocations.
type History interface {
	Get(ctx context.Context, id string) (*journal.Entry, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	CountByResult(ctx context.Context) (map[string]int, error)
}

// UsageSource reports brain token usage.
type UsageSource interface {
	Stats() usage.Stats
}

// Deps are the services the routes call into.
type Deps struct {
	Agents      map[agent.Mode]Runner
	DefaultMode agent.Mode
	Processes   types.ProcessSource
	History     History     // nil when the journal is disabled
	Usage       UsageSource // nil when usage accounting is disabled
}

// New builds the HTTP handler.
func New(cfg config.ServerConfig, deps Deps) *gin.Engine {
	if deps.DefaultMode == "" {
		deps.DefaultMode = agent.ModeSelect
	}
	g := gin.New()
	g.Use(requestLogger(), gin.Recovery())
	attachRoutes(g, cfg, deps)
	return g
}

// requestLogger logs one line per request on the api category.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Get(logging.CategoryAPI).Event("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ListenAndServe listens on cfg.Addr and serves h until ctx is done.
func ListenAndServe(ctx context.Context, cfg *config.Config, h http.Handler) error {
	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h, cfg.GetServerReadTimeout())
}

// Serve serves h on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, readTimeout time.Duration) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: readTimeout, ReadTimeout: readTimeout}

	errCh := make(chan error, 1)
	go func() {
		logging.Get(logging.CategoryAPI).Info("listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logging.Get(logging.CategoryAPI).Info("server stopped")
	return nil
}
