package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/animus-coder/autosolve/internal/llm"
)

// Reply scripts a single streamed answer.
type Reply struct {
	Chunks []string
	Err    error
}

// Provider is a test double implementing llm.Provider. Each Stream call
// consumes the next scripted reply; once the script runs out the last reply
// is repeated. Every request is recorded.
type Provider struct {
	NameValue string
	Replies   []Reply
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)

	mu       sync.Mutex
	requests []llm.ChatRequest
	next     int
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.record(req)
	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}
	return llm.ChatResponse{
		Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: "mock"},
		FinishReason: "stop",
		ProviderName: p.Name(),
		Model:        req.Model,
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	p.record(req)
	reply := p.nextReply()

	ch := make(chan llm.StreamChunk, len(reply.Chunks))
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errCh)
		for _, c := range reply.Chunks {
			select {
			case ch <- llm.StreamChunk{Content: c}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if reply.Err != nil {
			errCh <- reply.Err
		}
	}()
	return ch, errCh
}

// Requests returns a copy of every request received so far.
func (p *Provider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.ChatRequest(nil), p.requests...)
}

// Text joins the chunks of a reply, handy for assertions.
func (r Reply) Text() string {
	return strings.Join(r.Chunks, "")
}

func (p *Provider) record(req llm.ChatRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	req.Messages = append([]llm.ChatMessage(nil), req.Messages...)
	p.requests = append(p.requests, req)
}

func (p *Provider) nextReply() Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Replies) == 0 {
		return Reply{}
	}
	idx := p.next
	if idx >= len(p.Replies) {
		idx = len(p.Replies) - 1
	} else {
		p.next++
	}
	return p.Replies[idx]
}
