package services

import (
	"context"
	"io"
	"sync"

	"github.com/BerylCAtieno/document-extractor/internal/analyzer"
	"github.com/BerylCAtieno/document-extractor/internal/storage"
)

// fakeModel is a scripted analyzer.Model.
type fakeModel struct {
	mu sync.Mutex

	response  string
	err       error
	block     bool
	tokens    []string
	streamErr error

	prompts []analyzer.Prompt
	opts    []analyzer.GenerateOptions
}

func (m *fakeModel) Generate(ctx context.Context, prompt analyzer.Prompt, opts analyzer.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

func (m *fakeModel) GenerateStream(ctx context.Context, prompt analyzer.Prompt) (analyzer.TokenStream, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &fakeStream{ctx: ctx, tokens: m.tokens, err: m.streamErr, block: m.block}, nil
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type fakeStream struct {
	ctx    context.Context
	tokens []string
	err    error
	block  bool
	closed bool
}

func (s *fakeStream) Next() (string, error) {
	if len(s.tokens) > 0 {
		tok := s.tokens[0]
		s.tokens = s.tokens[1:]
		return tok, nil
	}
	if s.block {
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string]*storage.Object
	err     error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: map[string]*storage.Object{}}
}

func (a *fakeArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = &storage.Object{Data: data, ContentType: contentType}
	return nil
}

func (a *fakeArchive) Download(ctx context.Context, key string) (*storage.Object, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	obj, ok := a.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return obj, nil
}
