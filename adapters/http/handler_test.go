package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/config"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/usecase"
)

type mockLlm struct {
	deltas []string
	err    error
	prompt string
}

func (m *mockLlm) Name() string { return "Mock" }

func (m *mockLlm) StreamChat(_ context.Context, _ string, messages []domain.ChatMessage) iter.Seq2[string, error] {
	m.prompt = messages[0].Content
	return func(yield func(string, error) bool) {
		for _, d := range m.deltas {
			if !yield(d, nil) {
				return
			}
		}
		if m.err != nil {
			yield("", m.err)
		}
	}
}

// gatedLlm yields its first delta, then holds the second until release is
// closed.
type gatedLlm struct {
	release chan struct{}
}

func (g *gatedLlm) Name() string { return "Gated" }

func (g *gatedLlm) StreamChat(ctx context.Context, _ string, _ []domain.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !yield("first", nil) {
			return
		}
		select {
		case <-g.release:
		case <-ctx.Done():
			return
		}
		yield("second", nil)
	}
}

type fixedCount int

func (f fixedCount) ClientCount() int { return int(f) }

func newTestServer(llm domain.Llm) *Server {
	cfg := &config.Config{Addr: ":0", BodyLimit: "1M", Provider: config.ProviderOllama, Model: "llama2"}
	svc := usecase.NewChatService(llm, cfg.Model)
	return NewServer(cfg, NewChatHandler(svc, fixedCount(2)))
}

func postPrompt(t *testing.T, s *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStreamPromptRelaysFragmentsInOrder(t *testing.T) {
	llm := &mockLlm{deltas: []string{"Hel", "lo", " world"}}
	rec := postPrompt(t, newTestServer(llm), url.Values{"prompt": {"say hi"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, echo.MIMETextPlainCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "Hello world", rec.Body.String())
	assert.Equal(t, "say hi", llm.prompt)
	assert.True(t, rec.Flushed)
}

func TestStreamPromptFlushesEachFragment(t *testing.T) {
	llm := &gatedLlm{release: make(chan struct{})}
	srv := httptest.NewServer(newTestServer(llm).Handler())
	defer srv.Close()

	resp, err := http.PostForm(srv.URL+"/", url.Values{"prompt": {"hi"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, echo.MIMETextPlainCharsetUTF8, resp.Header.Get(echo.HeaderContentType))

	first := make([]byte, len("first"))
	_, err = io.ReadFull(resp.Body, first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))

	close(llm.release)
	rest, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "second", string(rest))
}

func TestStreamPromptAcceptsAnyPrompt(t *testing.T) {
	for _, prompt := range []string{"", " ", "ünïcødé & = ?", strings.Repeat("x", 10000)} {
		llm := &mockLlm{deltas: []string{"ok"}}
		rec := postPrompt(t, newTestServer(llm), url.Values{"prompt": {prompt}})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))
		assert.Equal(t, prompt, llm.prompt)
	}
}

func TestStreamPromptFoldsMidStreamFailure(t *testing.T) {
	llm := &mockLlm{
		deltas: []string{"A", "B"},
		err:    &domain.ServiceError{Kind: domain.KindStream, Provider: "Mock", Model: "llama2", Err: errors.New("runner crashed")},
	}
	rec := postPrompt(t, newTestServer(llm), url.Values{"prompt": {"hi"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "AB"))
	diagnostic := strings.TrimSpace(strings.TrimPrefix(body, "AB"))
	assert.NotEmpty(t, diagnostic)
	assert.Contains(t, diagnostic, "runner crashed")
}

func TestStreamPromptFoldsUnreachableService(t *testing.T) {
	llm := &mockLlm{err: &domain.ServiceError{Kind: domain.KindUnreachable, Provider: "Ollama", Endpoint: "http://localhost:11434", Model: "llama2"}}
	rec := postPrompt(t, newTestServer(llm), url.Values{"prompt": {"hi"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Error: Could not connect"))
}

func TestStreamPromptMissingField(t *testing.T) {
	rec := postPrompt(t, newTestServer(&mockLlm{}), url.Values{"other": {"x"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexServesStatelessPage(t *testing.T) {
	s := newTestServer(&mockLlm{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML))
	body := rec.Body.String()
	assert.Contains(t, body, `<form id="chat-form">`)
	assert.Contains(t, body, `name="prompt"`)
	assert.Contains(t, body, `<div id="response-display"></div>`)
	assert.Contains(t, body, `<div id="error-message" class="error-message"></div>`)
	assert.Contains(t, body, "llama2")
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&mockLlm{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "Mock", body["provider"])
	assert.Equal(t, "llama2", body["model"])
	assert.EqualValues(t, 2, body["ws_clients"])
}

func TestRequestIDHeader(t *testing.T) {
	rec := postPrompt(t, newTestServer(&mockLlm{deltas: []string{"x"}}), url.Values{"prompt": {"hi"}})

	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
