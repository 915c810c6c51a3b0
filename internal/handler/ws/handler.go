package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatHandler "github.com/eventsastudio/concierge/backend/internal/handler/chat"
	chatService "github.com/eventsastudio/concierge/backend/internal/service/chat"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// Handler serves the chat procedure over a WebSocket. Each connection carries
// one exchange at a time: a request frame is answered before the next is read.
type Handler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
	logger   *zap.Logger

	// readTimeout bounds how long an idle connection waits for the next
	// frame or pong. Pings go out at nine tenths of it.
	readTimeout time.Duration
}

// ErrorFrame is written when a request frame is rejected.
type ErrorFrame struct {
	Error string `json:"error"`
}

// New creates the WebSocket handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.Named("ws_handler"),
		readTimeout: pongWait,
	}
}

// RegisterRoutes mounts the WebSocket route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(chatHandler.MaxRequestBytes)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	ctx := r.Context()
	for {
		// Pongs are only processed while reading, so time spent answering
		// the previous frame must not count against the idle timeout.
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var req chatService.SendRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		resp, err := h.chatSvc.SendMessage(ctx, req)
		var frame any = resp
		if err != nil {
			frame = ErrorFrame{Error: err.Error()}
		}
		if err := h.write(conn, frame); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// keepAlive pings until done is closed. gorilla/websocket allows one
// concurrent writer besides control frames sent with WriteControl.
func (h *Handler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.readTimeout * 9 / 10)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					h.logger.Debug("websocket ping failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, frame any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
