package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/gryork-engineers/grybot/internal/domain"
	"github.com/gryork-engineers/grybot/internal/port"
	openai "github.com/sashabaranov/go-openai"
)

// GeminiConfig holds the configuration for the Gemini OpenAI-compatible endpoint.
type GeminiConfig struct {
	BaseURL     string // e.g. https://generativelanguage.googleapis.com/v1beta/openai
	ChatModel   string // e.g. gemini-2.5-flash
	EmbedModel  string // e.g. text-embedding-004
	Temperature float32
}

// GeminiFactory builds credential-bound Gemini clients over the OpenAI-compatible
// API. Clients are cheap to construct, so one is built per request credential.
type GeminiFactory struct {
	cfg GeminiConfig
}

// NewGeminiFactory creates a factory for Gemini-backed providers.
func NewGeminiFactory(cfg GeminiConfig) *GeminiFactory {
	return &GeminiFactory{cfg: cfg}
}

// Embedder returns an embedding client authenticated with the given credential.
func (f *GeminiFactory) Embedder(credential string) port.Embedder {
	return &geminiEmbedder{
		client: f.newClient(credential),
		model:  f.cfg.EmbedModel,
	}
}

// ChatModel returns a chat client authenticated with the given credential.
func (f *GeminiFactory) ChatModel(credential string) port.ChatModel {
	return &geminiChat{
		client:      f.newClient(credential),
		model:       f.cfg.ChatModel,
		temperature: f.cfg.Temperature,
	}
}

func (f *GeminiFactory) newClient(credential string) *openai.Client {
	cc := openai.DefaultConfig(credential)
	cc.BaseURL = f.cfg.BaseURL
	return openai.NewClientWithConfig(cc)
}

type geminiEmbedder struct {
	client *openai.Client
	model  string
}

// Identity returns the embedding-space identifier for this provider.
func (e *geminiEmbedder) Identity() string {
	return "gemini/" + e.model
}

// Embed generates a vector embedding for the given text.
func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (e *geminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

type geminiChat struct {
	client      *openai.Client
	model       string
	temperature float32
}

// ModelName returns the chat model identifier.
func (c *geminiChat) ModelName() string {
	return c.model
}

// Chat sends the persona, prior turns (oldest first) and the current question,
// returning the model's answer. An empty completion is returned as "" with no
// error; the caller decides what to answer in that case.
func (c *geminiChat) Chat(ctx context.Context, systemPrompt, userPrompt string, history []domain.ChatTurn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2*len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.UserMessage},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.BotResponse},
		)
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
