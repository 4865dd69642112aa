package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gryork-engineers/grybot/internal/adapter/ai"
	"github.com/gryork-engineers/grybot/internal/domain"
	"github.com/gryork-engineers/grybot/internal/metrics"
	"github.com/gryork-engineers/grybot/internal/port"
)

// fallbackAnswer is returned when the model produces an empty answer.
const fallbackAnswer = "I'm here to talk about Gryork, GRYLINK and its work 🙂"

// personaPrompt instructs the model to reference Gryork-specific context only
// when the user explicitly brings up Gryork terms, and to answer generically
// otherwise.
const personaPrompt = `You are GryBOT, a friendly AI assistant built by Gryork Engineers. Gryork is a company focused on solving liquidity challenges in the infrastructure sector.

## Core Purpose
- Answer questions about Gryork, its solutions (e.g., CWC model, GRYLINK platform), and related terms only when the user explicitly mentions Gryork, Aditya Tiwari, or Gryork-specific terms.
- For general questions (e.g., "What is CWC?") that do not mention Gryork or its specific terms, provide a concise, accurate, and general response without referencing Gryork or its context.
- For questions outside Gryork's scope, you may politely redirect to Aditya Tiwari or Gryork Engineers if relevant.
- Avoid overusing Gryork references unless the user intends to discuss Gryork.

## Style
- Keep responses short, warm, and conversational. Use different colorful emojis when appropriate to match the context 😊.
- Be clear and simple when discussing technical topics, especially infrastructure or financing concepts.
- Be empathetic when addressing personal or sensitive questions.

## Details
Here's some context about Gryork (use only when Gryork or its terms are mentioned):
- Aditya Tiwari is the founder of Gryork Engineers, a company focused on solving liquidity challenges in the infrastructure sector through innovative financing solutions.
- Gryork Engineers develops the Credit on Working Capital (CWC) model, which provides subcontractors with short-term credit backed by a Letter of Guarantee (LoG) from infrastructure companies.`

// Retriever finds the chunks nearest to a query embedding.
type Retriever interface {
	Search(queryVector []float32, k int) ([]domain.ScoredChunk, error)
}

// ChatService is the conversation engine: small-talk shortcut, history
// windowing, fallback-paired retrieval and the Gemini chat call. Failures in
// the history fetch, the exhausted embedder pair or the LLM call are not
// recovered here; they propagate to the boundary. Only the embedding fallback
// and empty-corpus retrieval degrade transparently.
type ChatService struct {
	smallTalk *SmallTalk
	history   port.HistoryStore
	aiFactory port.AIFactory
	local     port.Embedder
	cache     *ai.EmbeddingCache
	retriever Retriever

	historyWindow int
	topK          int
}

// NewChatService creates the conversation engine.
func NewChatService(
	smallTalk *SmallTalk,
	history port.HistoryStore,
	aiFactory port.AIFactory,
	local port.Embedder,
	cache *ai.EmbeddingCache,
	retriever Retriever,
	historyWindow, topK int,
) *ChatService {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &ChatService{
		smallTalk:     smallTalk,
		history:       history,
		aiFactory:     aiFactory,
		local:         local,
		cache:         cache,
		retriever:     retriever,
		historyWindow: historyWindow,
		topK:          topK,
	}
}

// Answer produces the bot response for one query. credential authenticates
// the remote provider; the local fallback embedder needs none.
func (s *ChatService) Answer(ctx context.Context, query, credential string) (string, error) {
	if s.smallTalk.IsSmallTalk(query) {
		metrics.SmallTalkReplies.Inc()
		return s.smallTalk.Respond(query), nil
	}

	// Most recent turns, reversed to oldest-first for the model.
	turns, err := s.history.RecentChats(ctx, s.historyWindow)
	if err != nil {
		return "", fmt.Errorf("fetch history: %w", err)
	}
	slices.Reverse(turns)

	embedder := ai.NewFallbackEmbedder(s.aiFactory.Embedder(credential), s.local, s.cache)
	queryVector, err := embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.retriever.Search(queryVector, s.topK)
	if err != nil {
		if !errors.Is(err, port.ErrDimensionMismatch) {
			return "", fmt.Errorf("retrieve context: %w", err)
		}
		// The query was embedded in a different space than the index; answer
		// without retrieved context rather than with meaningless neighbors.
		slog.Warn("query embedding does not match index, answering without context", "error", err)
		chunks = nil
	}

	model := s.aiFactory.ChatModel(credential)
	answer, err := model.Chat(ctx, buildSystemPrompt(chunks), query, turns)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return fallbackAnswer, nil
	}
	return answer, nil
}

// buildSystemPrompt appends the retrieved document context to the persona.
func buildSystemPrompt(chunks []domain.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString(personaPrompt)
	sb.WriteString("\n\n## Context\n")
	if len(chunks) == 0 {
		sb.WriteString("(no documents retrieved)\n")
		return sb.String()
	}
	for _, c := range chunks {
		fmt.Fprintf(&sb, "[Source: %s]\n%s\n\n", c.SourceFile, c.Text)
	}
	return sb.String()
}
