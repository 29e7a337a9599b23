package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/animus-coder/autosolve/internal/llm"
	"github.com/animus-coder/autosolve/internal/version"
)

// Provider implements an Ollama chat client with NDJSON streaming.
type Provider struct {
	name    string
	client  *http.Client
	baseURL string
}

// NewProvider constructs an Ollama provider. A zero timeout leaves the
// request unbounded; local models can take minutes per reply.
func NewProvider(name, baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}

	return &Provider{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// Chat executes a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	res, err := p.post(ctx, req, false)
	if err != nil {
		return llm.ChatResponse{}, err
	}
	defer res.Body.Close()

	var resp ollamaChatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return llm.ChatResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return llm.ChatResponse{}, fmt.Errorf("ollama: %s", resp.Error)
	}

	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.Role(resp.Message.Role),
			Content: resp.Message.Content,
		},
		FinishReason: finishReason(resp),
		ProviderName: p.name,
		Model:        req.Model,
	}, nil
}

// Stream performs a streamed chat and emits one chunk per NDJSON line.
func (p *Provider) Stream(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamChunk, <-chan error) {
	ch := make(chan llm.StreamChunk, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		res, err := p.post(ctx, req, true)
		if err != nil {
			errCh <- err
			return
		}
		defer res.Body.Close()

		dec := json.NewDecoder(res.Body)
		for {
			var part ollamaChatResponse
			if err := dec.Decode(&part); err != nil {
				if errors.Is(err, io.EOF) {
					errCh <- fmt.Errorf("ollama: stream ended before done")
					return
				}
				errCh <- fmt.Errorf("decode stream: %w", err)
				return
			}
			if part.Error != "" {
				errCh <- fmt.Errorf("ollama: %s", part.Error)
				return
			}

			chunk := llm.StreamChunk{Content: part.Message.Content}
			if part.Done {
				chunk.FinishReason = finishReason(part)
			}
			if chunk.Content != "" || part.Done {
				select {
				case ch <- chunk:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if part.Done {
				return
			}
		}
	}()

	return ch, errCh
}

func (p *Provider) post(ctx context.Context, req llm.ChatRequest, stream bool) (*http.Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   stream,
		Options:  options,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	res, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if res.StatusCode >= 300 {
		defer res.Body.Close()
		b, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("ollama: status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}
	return res, nil
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message    ollamaMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func finishReason(r ollamaChatResponse) string {
	if r.DoneReason != "" {
		return r.DoneReason
	}
	return "stop"
}

func toOllamaMessages(msgs []llm.ChatMessage) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ollamaMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
