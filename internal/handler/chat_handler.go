package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gryork-engineers/grybot/internal/metrics"
	"github.com/gryork-engineers/grybot/internal/port"
)

// CredentialHeader carries the caller's Gemini API key. When absent, the
// process-wide default from the environment is used instead.
const CredentialHeader = "Gemini-Api-Key"

// chatTimeout bounds one end-to-end engine invocation so a hung remote call
// cannot pin a request forever.
const chatTimeout = 2 * time.Minute

// Engine produces one answer per query.
type Engine interface {
	Answer(ctx context.Context, query, credential string) (string, error)
}

// ChatHandler is the service boundary: it resolves the credential, invokes
// the conversation engine and persists the exchange.
type ChatHandler struct {
	engine            Engine
	history           port.HistoryStore
	defaultCredential string
}

// NewChatHandler creates a new chat handler. defaultCredential may be empty,
// in which case every request must carry the credential header.
func NewChatHandler(engine Engine, history port.HistoryStore, defaultCredential string) *ChatHandler {
	return &ChatHandler{engine: engine, history: history, defaultCredential: defaultCredential}
}

// Register sets up the chat route.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
}

// Chat handles one query end-to-end.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.Bind().JSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	credential := c.Get(CredentialHeader)
	if credential == "" {
		credential = h.defaultCredential
	}
	if credential == "" {
		metrics.ChatRequests.WithLabelValues("no_credential").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": port.ErrNoCredential.Error()})
	}

	chatCtx, cancel := context.WithTimeout(c.Context(), chatTimeout)
	defer cancel()

	answer, err := h.engine.Answer(chatCtx, body.Query, credential)
	if err != nil {
		slog.Error("chat failed", "error", err)
		metrics.ChatRequests.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to answer query"})
	}

	// The answer is already computed; a storage hiccup should not discard it.
	if err := h.history.SaveChat(chatCtx, body.Query, answer); err != nil {
		slog.Error("failed to persist chat", "error", err)
	}

	metrics.ChatRequests.WithLabelValues("ok").Inc()
	return c.JSON(fiber.Map{"answer": answer})
}
