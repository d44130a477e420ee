package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Aashish23092/tax-advisor/config"
	"github.com/Aashish23092/tax-advisor/dto"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of *openai.Client the oracle needs. Tests swap in
// a stub.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const (
	chatTemperature       = 0.3
	completionTemperature = 0.1
)

// OpenAIClient answers prompts and advisor conversations through an
// OpenAI-compatible chat completion endpoint. It makes one attempt per call.
type OpenAIClient struct {
	api             ChatCompleter
	chatModel       string
	completionModel string
	timeout         time.Duration
}

// NewOpenAIClient builds a client from cfg. It returns nil when no API key is
// configured, which disables every oracle feature.
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	if !cfg.OracleEnabled() {
		log.Info().Msg("no OpenAI API key configured, oracle features disabled")
		return nil
	}

	transportCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		transportCfg.BaseURL = cfg.OpenAIBaseURL
	}
	transportCfg.HTTPClient = &http.Client{Timeout: cfg.OracleTimeout}

	return NewOpenAIClientWithAPI(openai.NewClientWithConfig(transportCfg), cfg)
}

// NewOpenAIClientWithAPI wraps an existing ChatCompleter.
func NewOpenAIClientWithAPI(api ChatCompleter, cfg *config.Config) *OpenAIClient {
	return &OpenAIClient{
		api:             api,
		chatModel:       cfg.ChatModel,
		completionModel: cfg.CompletionModel,
		timeout:         cfg.OracleTimeout,
	}
}

// Complete sends prompt as a single user message to the completion model.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.create(ctx, openai.ChatCompletionRequest{
		Model:       c.completionModel,
		Temperature: completionTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// ChatComplete sends a whole conversation to the chat model.
func (c *OpenAIClient) ChatComplete(ctx context.Context, turns []dto.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(t.Role),
			Content: t.Text,
		})
	}
	return c.create(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: chatTemperature,
		Messages:    messages,
	})
}

func (c *OpenAIClient) create(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", dto.ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", dto.ErrMalformedOracleResponse)
	}

	log.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func chatRole(r dto.Role) string {
	switch r {
	case dto.RoleSystem:
		return openai.ChatMessageRoleSystem
	case dto.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
