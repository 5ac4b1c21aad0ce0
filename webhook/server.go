// Package webhook serves the VK Callback API: the transport-push
// counterpart to Long Poll. It answers confirmation probes, validates
// the shared secret, drops replayed events, and hands fresh updates to
// the bot dispatcher.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	vkbot "github.com/mchkv/vkbot"
	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/internal/metrics"
)

var (
	ErrConfirmationRequired = errors.New("webhook: confirmation string required")
	ErrDispatcherRequired   = errors.New("webhook: update dispatcher required")
)

// Dispatcher consumes verified updates. *vkbot.Bot satisfies it.
type Dispatcher interface {
	ProcessUpdate(ctx context.Context, u *vkbot.Update) error
}

// Config defines one Callback API endpoint.
type Config struct {
	// Path of the callback route. Defaults to /callback.
	Path string
	// Confirmation is the string VK expects back on a confirmation probe.
	Confirmation string
	// Secret, when set, must match the envelope secret of every request.
	Secret string
	// DedupeTTL bounds the replay window. Defaults to 5 minutes.
	DedupeTTL time.Duration
	// ShutdownTimeout bounds graceful shutdown. Defaults to 10 seconds.
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Path) == "" {
		c.Path = "/callback"
	}
	if c.DedupeTTL <= 0 {
		c.DedupeTTL = 5 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Server answers Callback API requests for one community endpoint.
type Server struct {
	cfg    Config
	bot    Dispatcher
	log    zerolog.Logger
	seen   *dedupeSet
	engine *gin.Engine
}

func New(bot Dispatcher, cfg Config) (*Server, error) {
	if bot == nil {
		return nil, ErrDispatcherRequired
	}
	if strings.TrimSpace(cfg.Confirmation) == "" {
		return nil, ErrConfirmationRequired
	}
	logging.ConfigureRuntime()
	cfg = cfg.withDefaults()

	s := &Server{
		cfg:  cfg,
		bot:  bot,
		log:  logging.Component("webhook"),
		seen: newDedupeSet(cfg.DedupeTTL),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLog())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.POST(cfg.Path, s.handleCallback)
	s.engine = engine
	return s, nil
}

// Handler exposes the router for embedding into an existing server.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Str("path", s.cfg.Path).Msg("webhook listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

type callbackEnvelope struct {
	Type    string          `json:"type"`
	GroupID int64           `json:"group_id"`
	EventID string          `json:"event_id"`
	Secret  string          `json:"secret"`
	Object  json.RawMessage `json:"object"`
}

// handleCallback answers "ok" for everything VK should stop retrying,
// including handler failures; only auth problems get an error status.
func (s *Server) handleCallback(c *gin.Context) {
	var env callbackEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	c.Set(ctxKeyEventType, env.Type)

	if s.cfg.Secret != "" && env.Secret != s.cfg.Secret {
		s.log.Warn().Str("type", env.Type).Int64("group_id", env.GroupID).Msg("secret mismatch")
		c.String(http.StatusForbidden, "forbidden")
		return
	}

	if env.Type == "confirmation" {
		c.String(http.StatusOK, s.cfg.Confirmation)
		return
	}

	if !s.seen.Add(env.EventID) {
		s.log.Debug().Str("event_id", env.EventID).Msg("duplicate event dropped")
		c.String(http.StatusOK, "ok")
		return
	}

	u := &vkbot.Update{
		Type:    env.Type,
		EventID: env.EventID,
		GroupID: env.GroupID,
		Object:  env.Object,
	}
	if err := s.bot.ProcessUpdate(c.Request.Context(), u); err != nil {
		s.log.Error().Str("type", env.Type).Err(err).Msg("update handler failed")
	}
	c.String(http.StatusOK, "ok")
}

// requestLog tags every request with a correlation id and records
// latency metrics by event type.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)
		start := time.Now()

		c.Next()

		eventType := c.GetString(ctxKeyEventType)
		if eventType == "" {
			eventType = "http"
		}
		elapsed := time.Since(start)
		metrics.RecordWebhookRequest(eventType, c.Writer.Status(), elapsed)
		s.log.Debug().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", elapsed).
			Msg("request")
	}
}

const ctxKeyEventType = "vkbot.event_type"
