package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/infogenius-ai/chat-relay/internal/handler/relay"
	"github.com/infogenius-ai/chat-relay/internal/handler/session"
	"github.com/infogenius-ai/chat-relay/internal/middleware"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// Deps 汇总路由所需的服务。
type Deps struct {
	Relay          relay.Relayer
	Sessions       session.Creator
	Gate           *middleware.IntervalGate
	AllowedOrigins []string
	Log            *logger.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Session)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	relayHandler := relay.New(deps.Relay, deps.Gate, log)
	relayHandler.RegisterRoutes(r)

	wsHandler := relay.NewWebSocketHandler(deps.Relay, deps.Gate, log)
	wsHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		session.New(deps.Sessions, log).RegisterRoutes(api)
	})

	return r
}
