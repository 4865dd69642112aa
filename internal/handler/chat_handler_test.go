package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gryork-engineers/grybot/internal/domain"
)

// mockEngine implements Engine.
type mockEngine struct {
	answer        string
	err           error
	gotQuery      string
	gotCredential string
	calls         int
}

func (m *mockEngine) Answer(ctx context.Context, query, credential string) (string, error) {
	m.calls++
	m.gotQuery = query
	m.gotCredential = credential
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// mockHistory implements port.HistoryStore.
type mockHistory struct {
	saveErr   error
	saved     [][2]string
	saveCalls int
}

func (m *mockHistory) SaveChat(ctx context.Context, userMessage, botResponse string) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, [2]string{userMessage, botResponse})
	return nil
}

func (m *mockHistory) RecentChats(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	return nil, nil
}

func (m *mockHistory) Close() error { return nil }

func newTestApp(engine *mockEngine, history *mockHistory, defaultCredential string) *fiber.App {
	app := fiber.New()
	NewChatHandler(engine, history, defaultCredential).Register(app)
	return app
}

func postChat(t *testing.T, app *fiber.App, body, headerCredential string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if headerCredential != "" {
		req.Header.Set(CredentialHeader, headerCredential)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestChat_AnswersWithHeaderCredential(t *testing.T) {
	engine := &mockEngine{answer: "Gryork solves liquidity challenges."}
	history := &mockHistory{}
	app := newTestApp(engine, history, "")

	status, body := postChat(t, app, `{"query":"what is gryork?"}`, "caller-key")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Gryork solves liquidity challenges.", body["answer"])
	assert.Equal(t, "caller-key", engine.gotCredential)
	require.Len(t, history.saved, 1)
	assert.Equal(t, "what is gryork?", history.saved[0][0])
	assert.Equal(t, "Gryork solves liquidity challenges.", history.saved[0][1])
}

func TestChat_FallsBackToDefaultCredential(t *testing.T) {
	engine := &mockEngine{answer: "ok"}
	app := newTestApp(engine, &mockHistory{}, "env-key")

	status, _ := postChat(t, app, `{"query":"hello there"}`, "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "env-key", engine.gotCredential)
}

func TestChat_NoCredentialAnywhereIsServerError(t *testing.T) {
	engine := &mockEngine{answer: "never"}
	app := newTestApp(engine, &mockHistory{}, "")

	status, body := postChat(t, app, `{"query":"hello"}`, "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, engine.calls, "no engine invocation without a credential")
}

func TestChat_InvalidBodyIsBadRequest(t *testing.T) {
	engine := &mockEngine{}
	app := newTestApp(engine, &mockHistory{}, "key")

	status, _ := postChat(t, app, `{"query":"  "}`, "key")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postChat(t, app, `not json`, "key")
	assert.Equal(t, fiber.StatusBadRequest, status)

	assert.Zero(t, engine.calls)
}

func TestChat_EngineFailureIsServerError(t *testing.T) {
	engine := &mockEngine{err: errors.New("gemini chat: 503")}
	history := &mockHistory{}
	app := newTestApp(engine, history, "key")

	status, body := postChat(t, app, `{"query":"hello world"}`, "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, history.saveCalls, "failed exchanges are not persisted")
}

func TestChat_PersistFailureStillReturnsAnswer(t *testing.T) {
	engine := &mockEngine{answer: "computed answer"}
	history := &mockHistory{saveErr: errors.New("disk full")}
	app := newTestApp(engine, history, "key")

	status, body := postChat(t, app, `{"query":"hello world"}`, "")

	// The answer was already computed; a storage hiccup must not discard it.
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "computed answer", body["answer"])
	assert.Equal(t, 1, history.saveCalls)
}
