package mock

import (
	"context"
	"io"

	"github.com/parleyhq/parley"
)

var _ parley.Answerer = (*Answerer)(nil)

// Answerer is a mock answer backend.
type Answerer struct {
	AnswerFn func(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error)
}

// NewAnswerer returns a mock Answerer that streams the given chunks for
// every request.
func NewAnswerer(chunks []string, sources []parley.SourceCitation) *Answerer {
	return &Answerer{
		AnswerFn: func(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
			return &AnswerStream{
				Chunks:   chunks,
				ModelVal: req.Settings.SelectedModel,
				Cited:    sources,
			}, nil
		},
	}
}

// Answer calls AnswerFn.
func (a *Answerer) Answer(ctx context.Context, req *parley.AnswerRequest) (parley.AnswerStream, error) {
	return a.AnswerFn(ctx, req)
}

var _ parley.AnswerStream = (*AnswerStream)(nil)

// AnswerStream is a mock answer stream that yields Chunks in order, then Err
// if set, then io.EOF.
type AnswerStream struct {
	Chunks   []string
	ModelVal string
	Cited    []parley.SourceCitation
	Err      error

	pos    int
	closed bool
}

// Recv returns the next chunk.
func (s *AnswerStream) Recv() (string, error) {
	if s.pos < len(s.Chunks) {
		chunk := s.Chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

// Model returns ModelVal.
func (s *AnswerStream) Model() string {
	return s.ModelVal
}

// Sources returns Cited.
func (s *AnswerStream) Sources() []parley.SourceCitation {
	return s.Cited
}

// Close marks the stream closed.
func (s *AnswerStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *AnswerStream) Closed() bool {
	return s.closed
}
