package store

import (
	"encoding/json"
	"fmt"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

func encodeMessages(messages chat.Transcript) ([]byte, error) {
	if messages == nil {
		messages = chat.Transcript{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return data, nil
}

func decodeMessages(data []byte) (chat.Transcript, error) {
	var messages chat.Transcript
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}
