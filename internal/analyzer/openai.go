package analyzer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	VisionModel string
	ChatModel   string
}

type openAIModel struct {
	cfg    OpenAIConfig
	client *openai.Client
	logger *utils.Logger
}

// NewOpenAIModel returns a Model backed by an OpenAI-compatible API. Calls
// fail with utils.ErrUpstreamUnavailable when no API key is configured.
func NewOpenAIModel(cfg OpenAIConfig, logger *utils.Logger) Model {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &openAIModel{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}
}

func (m *openAIModel) Generate(ctx context.Context, prompt Prompt, opts GenerateOptions) (string, error) {
	if m.cfg.APIKey == "" {
		return "", utils.ErrUpstreamUnavailable
	}

	model := m.cfg.TextModel
	if prompt.Image != nil {
		model = m.cfg.VisionModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildMessages(prompt),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if opts.Structured {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	m.logger.Debug("llm.generate.start", "model", model, "has_image", prompt.Image != nil, "structured", opts.Structured)

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		m.logger.Error("llm.generate.error", "model", model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	m.logger.Info("llm.generate.ok",
		"model", model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds())

	return resp.Choices[0].Message.Content, nil
}

func (m *openAIModel) GenerateStream(ctx context.Context, prompt Prompt) (TokenStream, error) {
	if m.cfg.APIKey == "" {
		return nil, utils.ErrUpstreamUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model:    m.cfg.ChatModel,
		Messages: buildMessages(prompt),
		Stream:   true,
	}

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		m.logger.Error("llm.stream.error", "model", m.cfg.ChatModel, "error", err)
		return nil, upstreamError(err)
	}

	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Next() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", upstreamError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
}

func (s *openAIStream) Close() error {
	s.stream.Close()
	return nil
}

func buildMessages(prompt Prompt) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}

	if prompt.Image == nil {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt.User,
		})
		return messages
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", prompt.Image.MediaType, base64.StdEncoding.EncodeToString(prompt.Image.Data))
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt.User},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailHigh,
				},
			},
		},
	})
	return messages
}

// upstreamError keeps the API's own message, which is what callers surface.
func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("model API status %d: %w", reqErr.HTTPStatusCode, err)
	}
	return err
}
