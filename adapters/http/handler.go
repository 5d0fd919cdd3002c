package http

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/usecase"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

// ConnCounter reports how many streaming connections are open elsewhere, for
// the health check.
type ConnCounter interface {
	ClientCount() int
}

type ChatHandler struct {
	chatService *usecase.ChatService
	conns       ConnCounter
}

type pageData struct {
	Provider string
	Model    string
}

func NewChatHandler(chatService *usecase.ChatService, conns ConnCounter) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		conns:       conns,
	}
}

// Index serves the page shell. It never contains a prompt or an answer.
func (h *ChatHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{
		Provider: h.chatService.Provider(),
		Model:    h.chatService.Model(),
	})
}

// StreamPrompt relays the answer to the form field "prompt" as plain text,
// flushing after every fragment. The status is committed before the first
// fragment, so a failure shows up as trailing diagnostic text.
func (h *ChatHandler) StreamPrompt(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form body")
	}
	values, ok := params["prompt"]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing form field: prompt")
	}
	prompt := values[0]

	ctx := c.Request().Context()
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	written := 0
	for frag := range h.chatService.Stream(ctx, prompt) {
		text := frag.Text
		if frag.IsError() && written > 0 {
			text = "\n\n" + text
		}
		if _, err := io.WriteString(res, text); err != nil {
			log.WithCtx(ctx).Warn("Client went away mid-stream", zap.Int("bytes_written", written), zap.Error(err))
			return nil
		}
		res.Flush()
		written += len(text)
	}
	return nil
}

func (h *ChatHandler) HealthCheck(c echo.Context) error {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"provider":  h.chatService.Provider(),
		"model":     h.chatService.Model(),
	}
	if h.conns != nil {
		body["ws_clients"] = h.conns.ClientCount()
	}
	return c.JSON(http.StatusOK, body)
}
