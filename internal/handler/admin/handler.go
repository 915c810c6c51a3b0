package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
	"github.com/eventsastudio/concierge/backend/internal/store"
	"github.com/eventsastudio/concierge/backend/pkg/utils"
)

// Handler exposes stored conversations to the studio team.
type Handler struct {
	transcripts store.TranscriptStore
	now         func() time.Time
	logger      *zap.Logger
}

// New creates the admin handler.
func New(transcripts store.TranscriptStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{transcripts: transcripts, now: time.Now, logger: logger.Named("admin_handler")}
}

// RegisterRoutes mounts the conversation routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/conversations", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{visitorID}", h.handleGet)
		r.Get("/{visitorID}/export", h.handleExport)
		r.Delete("/{visitorID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.transcripts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	previews := make([]chat.Preview, 0, len(records))
	for _, rec := range records {
		p := rec.Preview()
		if query != "" && !matches(p, query) {
			continue
		}
		previews = append(previews, p)
	}
	utils.RespondJSON(w, http.StatusOK, previews)
}

func matches(p chat.Preview, query string) bool {
	return strings.Contains(strings.ToLower(p.VisitorID), query) ||
		strings.Contains(strings.ToLower(p.LastMessage), query)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.retrieve(w, r)
	if !ok {
		return
	}
	filename := fmt.Sprintf("conversation_%s_%s.json", rec.VisitorID, h.now().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	utils.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	visitorID := chi.URLParam(r, "visitorID")
	if err := h.transcripts.Delete(r.Context(), visitorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to delete conversation", zap.String("visitor_id", visitorID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	h.logger.Info("conversation deleted", zap.String("visitor_id", visitorID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) (chat.ConversationRecord, bool) {
	visitorID := chi.URLParam(r, "visitorID")
	rec, err := h.transcripts.Retrieve(r.Context(), visitorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return chat.ConversationRecord{}, false
		}
		h.logger.Error("failed to load conversation", zap.String("visitor_id", visitorID), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return chat.ConversationRecord{}, false
	}
	return rec, true
}
