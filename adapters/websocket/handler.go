package websocket

import (
	"github.com/labstack/echo/v4"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

// Handler upgrades the request and serves prompts on it until the
// connection closes.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	client := NewClient(log.WithConn(ctx, c.Response().Header().Get(echo.HeaderXRequestID)), conn)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	log.WithCtx(client.Context()).Debug("WebSocket client connected")
	client.Run(s.stream)

	<-client.Context().Done()
	log.WithCtx(client.Context()).Debug("WebSocket client disconnected")

	return nil
}
