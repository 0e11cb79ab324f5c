package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BerylCAtieno/document-extractor/internal/analyzer"
	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/store"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type ChatService interface {
	// Stream answers a question about a stored document. The caller owns the
	// returned stream and must Close it.
	Stream(ctx context.Context, req *models.ChatRequest) (analyzer.TokenStream, error)
}

type chatService struct {
	store    *store.Store
	model    analyzer.Model
	timeout  time.Duration
	maxChars int
	logger   *utils.Logger
}

// NewChatService builds the chat service. maxPromptChars bounds the document
// text sent as grounding, the same limit extraction applies to PDF text.
func NewChatService(st *store.Store, model analyzer.Model, timeout time.Duration, maxPromptChars int, logger *utils.Logger) ChatService {
	return &chatService{
		store:    st,
		model:    model,
		timeout:  timeout,
		maxChars: maxPromptChars,
		logger:   logger,
	}
}

func (s *chatService) Stream(ctx context.Context, req *models.ChatRequest) (analyzer.TokenStream, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, utils.NewBadRequestError("Document ID is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, utils.NewBadRequestError("Message is required")
	}

	doc, ok := s.store.Get(req.ID)
	if !ok {
		return nil, utils.NewSessionNotFoundError(req.ID)
	}

	prompt, err := analyzer.ChatPrompt(doc.Result, req.Message, s.maxChars)
	if err != nil {
		return nil, utils.NewInternalError("Failed to build chat prompt")
	}

	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	stream, err := s.model.GenerateStream(ctx, prompt)
	if err != nil {
		cancel()
		s.logger.Error("chat.start_failed", "id", req.ID, "error", err)
		if errors.Is(err, utils.ErrUpstreamUnavailable) {
			return nil, utils.NewUpstreamUnavailableError(err)
		}
		return nil, s.failure(ctx, err)
	}

	s.logger.Info("chat.start", "id", req.ID, "message_len", len(req.Message))
	return &chatStream{
		inner:   stream,
		ctx:     ctx,
		cancel:  cancel,
		service: s,
		id:      req.ID,
		started: time.Now(),
	}, nil
}

func (s *chatService) failure(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return utils.NewChatFailedError(fmt.Errorf("model API did not finish within %s", s.timeout))
	}
	return utils.NewChatFailedError(err)
}

// chatStream ties the upstream stream to its deadline and reports failures
// as ChatFailed.
type chatStream struct {
	inner   analyzer.TokenStream
	ctx     context.Context
	cancel  context.CancelFunc
	service *chatService
	id      string
	started time.Time
	tokens  int
}

func (c *chatStream) Next() (string, error) {
	tok, err := c.inner.Next()
	switch {
	case err == nil:
		c.tokens++
		return tok, nil
	case errors.Is(err, io.EOF):
		c.service.logger.Info("chat.ok", "id", c.id, "increments", c.tokens,
			"elapsed_ms", time.Since(c.started).Milliseconds())
		return "", io.EOF
	default:
		c.service.logger.Warn("chat.stream_failed", "id", c.id, "increments", c.tokens, "error", err)
		return "", c.service.failure(c.ctx, err)
	}
}

func (c *chatStream) Close() error {
	defer c.cancel()
	return c.inner.Close()
}
