package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	"github.com/eventsastudio/concierge/backend/pkg/utils"
)

// Handler serves the localized assistant lines the client shows before any
// model call.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes mounts the persona routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleListPersonas)
	r.Get("/personas/{language}", h.handleGetPersona)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	code, ok := language.Parse(chi.URLParam(r, "language"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unsupported language")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.personas.Resolve(code))
}
