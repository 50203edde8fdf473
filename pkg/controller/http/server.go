package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
)

// Server routes the bot's inbound surface: the Slack events webhook, the
// interaction callback, the slash command, and a liveness probe.
type Server struct {
	router *chi.Mux
	bot    *usecase.Bot
	pinger Pinger
}

// Pinger reports store health for the liveness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options is a functional option for Server configuration
type Options func(*Server)

// WithPinger attaches a store health check to the /health endpoint
func WithPinger(p Pinger) Options {
	return func(s *Server) {
		s.pinger = p
	}
}

// New creates the HTTP server. All Slack routes sit behind signature
// verification with the given signing secret.
func New(bot *usecase.Bot, signingSecret string, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		bot:    bot,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/hooks/slack", func(r chi.Router) {
		r.Use(SlackSignatureMiddleware(signingSecret))

		r.Post("/event", NewSlackEventHandler(bot).ServeHTTP)
		r.Post("/interaction", NewSlackInteractionHandler(bot).ServeHTTP)
		r.Post("/command", NewSlackCommandHandler(bot).ServeHTTP)
	})

	r.Get("/health", s.healthHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logging.From(r.Context()).Error("failed to write health response", "error", err)
	}
}

// accessLogger logs one line per request
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.From(r.Context()).Info("http access",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
