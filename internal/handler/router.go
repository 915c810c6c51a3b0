package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/handler/admin"
	"github.com/eventsastudio/concierge/backend/internal/handler/chat"
	"github.com/eventsastudio/concierge/backend/internal/handler/persona"
	"github.com/eventsastudio/concierge/backend/internal/handler/stream"
	"github.com/eventsastudio/concierge/backend/internal/handler/ws"
	middlewarePkg "github.com/eventsastudio/concierge/backend/internal/middleware"
	personaModel "github.com/eventsastudio/concierge/backend/internal/model/persona"
	chatService "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/internal/store"
	"github.com/eventsastudio/concierge/backend/pkg/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Personas    personaModel.Store
	Chat        *chatService.Service
	Transcripts store.TranscriptStore
	// AdminToken protects the admin routes when non-empty.
	AdminToken string
	Logger     *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", handleHealth)

		persona.New(deps.Personas).RegisterRoutes(api)

		chat.New(deps.Chat, logger).RegisterRoutes(api)
		stream.New(deps.Chat, logger).RegisterRoutes(api)
		ws.New(deps.Chat, logger).RegisterRoutes(api)

		if deps.Transcripts != nil {
			api.Group(func(protected chi.Router) {
				protected.Use(middlewarePkg.BearerToken(deps.AdminToken))
				admin.New(deps.Transcripts, logger).RegisterRoutes(protected)
			})
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
