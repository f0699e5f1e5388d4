// Package answer provides built-in answer backends. The static answerer is
// a placeholder used until a real retrieval and model backend is configured;
// it echoes a canned response so that the full conversation path can be
// exercised end to end.
package answer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/parleyhq/parley"
)

// DefaultChunkSize is the number of bytes per streamed chunk.
const DefaultChunkSize = 16

var _ parley.Answerer = (*StaticAnswerer)(nil)

// StaticAnswerer answers every prompt with a fixed acknowledgement.
type StaticAnswerer struct {
	chunkSize int
}

// StaticOption is a functional option for the static answerer.
type StaticOption func(*StaticAnswerer)

// WithChunkSize sets the streamed chunk size.
func WithChunkSize(n int) StaticOption {
	return func(a *StaticAnswerer) {
		a.chunkSize = n
	}
}

// NewStaticAnswerer creates a static answer backend.
func NewStaticAnswerer(opts ...StaticOption) *StaticAnswerer {
	a := &StaticAnswerer{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer produces a canned response naming the resolved model and the size
// of the transcript it was given.
func (a *StaticAnswerer) Answer(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
	content := fmt.Sprintf(
		"This deployment has no answer backend configured. Model %q received %q with %d prior messages.",
		req.Settings.SelectedModel, req.Prompt, len(req.History),
	)
	return &staticStream{
		content:   content,
		model:     req.Settings.SelectedModel,
		chunkSize: a.chunkSize,
	}, nil
}

type staticStream struct {
	content   string
	model     string
	chunkSize int

	mu     sync.Mutex
	pos    int
	closed bool
}

func (s *staticStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", io.EOF
	}
	if s.pos >= len(s.content) {
		return "", io.EOF
	}
	end := s.pos + s.chunkSize
	if end > len(s.content) {
		end = len(s.content)
	}
	chunk := s.content[s.pos:end]
	s.pos = end
	return chunk, nil
}

func (s *staticStream) Model() string {
	return s.model
}

func (s *staticStream) Sources() []parley.SourceCitation {
	return nil
}

func (s *staticStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
