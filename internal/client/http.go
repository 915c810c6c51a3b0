// Package client holds the chat transports used by the session orchestrator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chatsvc "github.com/eventsastudio/concierge/backend/internal/service/chat"
)

// SendPath is the conversation endpoint relative to the API base URL.
const SendPath = "/api/chat/send"

// DefaultTimeout bounds one exchange including the model call.
const DefaultTimeout = 60 * time.Second

// HTTPTransport posts exchanges to the concierge API.
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPTransport targets the API at baseURL, e.g. http://localhost:8080.
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		endpoint:   strings.TrimRight(baseURL, "/") + SendPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send implements session.Transport.
func (t *HTTPTransport) Send(ctx context.Context, req chatsvc.SendRequest) (chatsvc.SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chatsvc.SendResponse{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return chatsvc.SendResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return chatsvc.SendResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chatsvc.SendResponse{}, decodeError(resp)
	}

	var out chatsvc.SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chatsvc.SendResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("chat api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("chat api returned %d: %s", e.StatusCode, e.Message)
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(data))
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: payload.Error}
}
