package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/animus-coder/autosolve/internal/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider implements an OpenAI-compatible chat provider on top of go-openai.
type Provider struct {
	name   string
	client *goopenai.Client
}

// NewProvider constructs a Provider. baseURL must include the API version
// segment (for example https://openrouter.ai/api/v1).
func NewProvider(name, baseURL, apiKey string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Provider{
		name:   name,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Chat executes a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	if req.Model == "" {
		return llm.ChatResponse{}, fmt.Errorf("model is required")
	}

	resp, err := p.client.CreateChatCompletion(ctx, toOpenAIRequest(req, false))
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.ChatResponse{}, fmt.Errorf("openai: empty choices")
	}

	choice := resp.Choices[0]
	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.Role(choice.Message.Role),
			Content: choice.Message.Content,
		},
		FinishReason: string(choice.FinishReason),
		ProviderName: p.name,
		Model:        req.Model,
	}, nil
}

// Stream performs a streamed chat completion, forwarding content deltas.
func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	ch := make(chan llm.StreamChunk, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		if req.Model == "" {
			errCh <- fmt.Errorf("model is required")
			return
		}

		stream, err := p.client.CreateChatCompletionStream(ctx, toOpenAIRequest(req, true))
		if err != nil {
			errCh <- fmt.Errorf("openai: %w", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- fmt.Errorf("openai stream: %w", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}

			choice := resp.Choices[0]
			chunk := llm.StreamChunk{
				Content:      choice.Delta.Content,
				FinishReason: string(choice.FinishReason),
			}
			if chunk.Content == "" && chunk.FinishReason == "" {
				continue
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return ch, errCh
}

func toOpenAIRequest(req llm.ChatRequest, stream bool) goopenai.ChatCompletionRequest {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
}
