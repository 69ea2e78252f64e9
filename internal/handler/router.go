package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/threebody-chat/internal/handler/chat"
	"github.com/zhouzirui/threebody-chat/internal/handler/credential"
	"github.com/zhouzirui/threebody-chat/internal/handler/orbit"
	"github.com/zhouzirui/threebody-chat/internal/handler/persona"
	"github.com/zhouzirui/threebody-chat/internal/handler/stream"
	"github.com/zhouzirui/threebody-chat/internal/handler/web"
	middlewarePkg "github.com/zhouzirui/threebody-chat/internal/middleware"
	personaModel "github.com/zhouzirui/threebody-chat/internal/model/persona"
	chatService "github.com/zhouzirui/threebody-chat/internal/service/chat"
	orbitService "github.com/zhouzirui/threebody-chat/internal/service/orbit"
)

// Dependencies collects the services the HTTP layer is built on.
type Dependencies struct {
	Personas       personaModel.Store
	Chat           *chatService.Service
	Credentials    credential.Store
	Animator       *orbitService.Animator
	StarCount      int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	personaHandler := persona.New(deps.Personas)
	credentialHandler := credential.New(deps.Credentials, deps.Chat)
	chatHandler := chat.New(deps.Chat, deps.Personas)
	streamHandler := stream.New(deps.Chat)
	starHandler := orbit.New(deps.StarCount)
	orbitHandler := orbit.NewWebSocketHandler(deps.Chat, deps.Animator)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst))

		personaHandler.RegisterRoutes(api)
		credentialHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		starHandler.RegisterRoutes(api)
		orbitHandler.RegisterWebSocketRoutes(api)
	})

	web.New().RegisterRoutes(r)

	return r
}
