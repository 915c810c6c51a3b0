package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel is a scripted model.ChatModel that records every prompt it sees.
type FakeChatModel struct {
	mu sync.Mutex

	Reply  string
	Chunks []string
	Err    error
	// Delay holds each call this long before answering.
	Delay time.Duration

	Calls   int
	Prompts [][]*schema.Message
}

// NewFakeChatModel returns a model that always answers reply.
func NewFakeChatModel(reply string) *FakeChatModel {
	return &FakeChatModel{Reply: reply}
}

func (f *FakeChatModel) record(ctx context.Context, input []*schema.Message) error {
	f.mu.Lock()
	f.Calls++
	f.Prompts = append(f.Prompts, append([]*schema.Message(nil), input...))
	err, delay := f.Err, f.Delay
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

// Generate implements model.BaseChatModel.
func (f *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if err := f.record(ctx, input); err != nil {
		return nil, err
	}
	return schema.AssistantMessage(f.Reply, nil), nil
}

// Stream implements model.BaseChatModel.
func (f *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := f.record(ctx, input); err != nil {
		return nil, err
	}
	chunks := f.Chunks
	if len(chunks) == 0 {
		chunks = []string{f.Reply}
	}
	msgs := make([]*schema.Message, 0, len(chunks))
	for _, c := range chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

// BindTools implements model.ChatModel.
func (f *FakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

// LastPrompt returns the most recent prompt passed to the model.
func (f *FakeChatModel) LastPrompt() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Prompts) == 0 {
		return nil
	}
	return f.Prompts[len(f.Prompts)-1]
}

// CallCount returns how many times the model was invoked.
func (f *FakeChatModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}
