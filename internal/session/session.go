// Package session keeps the conversation with the generative backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animus-coder/autosolve/internal/llm"
	"github.com/animus-coder/autosolve/internal/logging"
)

// ErrBackend marks failures of the generative backend. The partial reply is
// still returned and recorded.
var ErrBackend = errors.New("generative backend failed")

// Session owns the append-only conversation history with one model.
type Session struct {
	provider llm.Provider
	route    llm.ModelRoute
	sinks    []Sink
	timeout  time.Duration
	logger   *zap.Logger

	history []llm.ChatMessage
}

// Option configures a Session.
type Option func(*Session)

// WithSinks attaches observers that receive every streamed fragment.
func WithSinks(sinks ...Sink) Option {
	return func(s *Session) { s.sinks = append(s.sinks, sinks...) }
}

// WithTimeout bounds a single Generate call; zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a session talking to provider with the given route.
func New(provider llm.Provider, route llm.ModelRoute, opts ...Option) *Session {
	s := &Session{
		provider: provider,
		route:    route,
		history:  make([]llm.ChatMessage, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Generate sends prompt with the full history and streams the reply to the
// sinks. The exchange is appended to the history even when the backend fails,
// so the model sees its own partial output next time.
//
// Errors wrapping ErrBackend describe the backend; any other error comes from
// a sink and means the reply could not be persisted.
func (s *Session) Generate(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, sink := range s.sinks {
		if err := sink.Begin(); err != nil {
			return "", err
		}
	}

	userMsg := llm.ChatMessage{Role: llm.RoleUser, Content: prompt}
	req := llm.ChatRequest{
		Model:       s.route.Model,
		Messages:    s.requestMessages(userMsg),
		MaxTokens:   s.route.MaxTokens,
		Temperature: s.route.Temperature,
	}

	start := time.Now()
	chunks, errCh := s.provider.Stream(ctx, req)

	var (
		b         strings.Builder
		sinkErr   error
		fragments int
		finish    string
	)
	for chunk := range chunks {
		fragments++
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		if chunk.Content == "" {
			continue
		}
		b.WriteString(chunk.Content)
		for _, sink := range s.sinks {
			if err := sink.Fragment(chunk.Content); err != nil && sinkErr == nil {
				sinkErr = err
			}
		}
	}
	backendErr := <-errCh

	for _, sink := range s.sinks {
		if err := sink.End(); err != nil && sinkErr == nil {
			sinkErr = err
		}
	}

	text := b.String()
	s.history = append(s.history, userMsg, llm.ChatMessage{Role: llm.RoleAssistant, Content: text})

	s.logger.Debug("generation finished",
		zap.String("provider", s.provider.Name()),
		zap.String("model", s.route.Model),
		zap.Int("fragments", fragments),
		zap.Int("bytes", len(text)),
		zap.String("finish_reason", finish),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("history", len(s.history)),
	)

	if sinkErr != nil {
		return text, fmt.Errorf("persist reply: %w", sinkErr)
	}
	if backendErr != nil {
		return text, fmt.Errorf("%w: %w", ErrBackend, backendErr)
	}
	return text, nil
}

// Reset forgets the conversation.
func (s *Session) Reset() {
	s.history = s.history[:0]
}

// Len reports the number of messages in the history.
func (s *Session) Len() int {
	return len(s.history)
}

func (s *Session) requestMessages(userMsg llm.ChatMessage) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(s.history)+2)
	if sp := strings.TrimSpace(s.route.SystemPrompt); sp != "" {
		msgs = append(msgs, llm.ChatMessage{Role: llm.RoleSystem, Content: sp})
	}
	msgs = append(msgs, s.history...)
	return append(msgs, userMsg)
}
