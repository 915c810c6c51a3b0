package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatService "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/pkg/utils"
)

// MaxRequestBytes caps a send request, history included.
const MaxRequestBytes = 1 << 20

// Handler serves the request/response chat endpoint.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger.Named("chat_handler")}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/send", h.handleSend)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload chatService.SendRequest
	if err := utils.DecodeJSON(w, r, MaxRequestBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.chatSvc.SendMessage(r.Context(), payload)
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("chat send failed", zap.Error(err))
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

// StatusFor maps conversation service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrMessageRequired), errors.Is(err, chatService.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
