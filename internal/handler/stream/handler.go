package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/analysis/language"
	chatHandler "github.com/eventsastudio/concierge/backend/internal/handler/chat"
	chatService "github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/pkg/utils"
)

// Handler streams assistant replies via Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates a new stream handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger.Named("stream_handler")}
}

// StreamResponse is the data payload of every SSE event.
type StreamResponse struct {
	Event    string        `json:"event"`
	Language language.Code `json:"language,omitempty"`
	Content  string        `json:"content,omitempty"`
	Success  *bool         `json:"success,omitempty"`
	Finished bool          `json:"finished,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var payload chatService.SendRequest
	if err := utils.DecodeJSON(w, r, chatHandler.MaxRequestBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.Validate(); err != nil {
		utils.RespondError(w, chatHandler.StatusFor(err), err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	send := func(evt StreamResponse) bool {
		if err := utils.SendSSEEvent(w, flusher, evt.Event, evt); err != nil {
			h.logger.Debug("sse client gone", zap.Error(err))
			return false
		}
		return true
	}

	if !send(StreamResponse{Event: "start", Language: language.Detect(payload.Message)}) {
		return
	}

	alive := true
	resp, err := h.chatSvc.StreamMessage(r.Context(), payload, func(delta string) {
		if alive {
			alive = send(StreamResponse{Event: "delta", Content: delta})
		}
	})
	if err != nil {
		h.logger.Error("stream message failed", zap.Error(err))
		send(StreamResponse{Event: "error", Error: err.Error()})
		return
	}
	if !alive {
		return
	}

	success := resp.Success
	if !send(StreamResponse{Event: "message", Content: resp.Message, Success: &success}) {
		return
	}
	send(StreamResponse{Event: "end", Finished: true})
}
