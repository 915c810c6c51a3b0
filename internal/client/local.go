package client

import (
	"context"

	chatsvc "github.com/eventsastudio/concierge/backend/internal/service/chat"
)

// LocalTransport calls a conversation service in the same process.
type LocalTransport struct {
	svc *chatsvc.Service
}

// NewLocalTransport wraps svc.
func NewLocalTransport(svc *chatsvc.Service) *LocalTransport {
	return &LocalTransport{svc: svc}
}

// Send implements session.Transport.
func (t *LocalTransport) Send(ctx context.Context, req chatsvc.SendRequest) (chatsvc.SendResponse, error) {
	return t.svc.SendMessage(ctx, req)
}
