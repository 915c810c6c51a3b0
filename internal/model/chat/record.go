package chat

import "time"

// ConversationRecord is the durable copy of a visitor transcript.
type ConversationRecord struct {
	VisitorID string     `json:"visitorId"`
	Messages  Transcript `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Preview summarises a record for the administrative listing.
type Preview struct {
	VisitorID    string    `json:"visitorId"`
	LastMessage  string    `json:"lastMessage"`
	MessageCount int       `json:"messageCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const previewLength = 100

// Preview builds the listing row for the record.
func (r ConversationRecord) Preview() Preview {
	p := Preview{
		VisitorID:    r.VisitorID,
		MessageCount: len(r.Messages),
		UpdatedAt:    r.UpdatedAt,
	}
	if last, ok := r.Messages.Last(); ok {
		p.LastMessage = truncateRunes(last.Content, previewLength)
	}
	return p
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
