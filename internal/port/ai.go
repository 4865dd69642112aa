package port

import (
	"context"

	"github.com/gryork-engineers/grybot/internal/domain"
)

// Embedder generates vector embeddings for text.
// Implementations can target Gemini, OpenAI-compatible APIs, or local Ollama.
type Embedder interface {
	// Identity returns a stable identifier for the embedding space this
	// provider produces (provider + model). Vectors from different
	// identities are not comparable.
	Identity() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel generates a conversational answer from the LLM backend.
type ChatModel interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat sends the system persona and the user question along with prior
	// conversation turns (oldest first) and returns the model's answer.
	Chat(ctx context.Context, systemPrompt, userPrompt string, history []domain.ChatTurn) (string, error)
}

// AIFactory constructs credential-bound providers. The remote provider
// credential arrives per request (header or environment default), so
// clients are built on demand rather than once at startup.
type AIFactory interface {
	// Embedder returns an embedding client authenticated with the given credential.
	Embedder(credential string) Embedder

	// ChatModel returns a chat client authenticated with the given credential.
	ChatModel(credential string) ChatModel
}
