package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/config"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

// Server owns the echo instance and its routes. It is built once at startup
// from the configuration; nothing about it is global.
type Server struct {
	echo    *echo.Echo
	addr    string
	closers []func()
}

type Option func(*Server)

// WithRoute registers an extra GET route, e.g. the websocket endpoint.
func WithRoute(path string, h echo.HandlerFunc) Option {
	return func(s *Server) { s.echo.GET(path, h) }
}

// WithShutdownHook runs fn before the HTTP server stops accepting requests.
func WithShutdownHook(fn func()) Option {
	return func(s *Server) { s.closers = append(s.closers, fn) }
}

func NewServer(cfg *config.Config, chat *ChatHandler, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = NewTemplateRenderer()
	// Streaming responses run as long as the model generates, so only the
	// header read is bounded.
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}

	e.GET("/", chat.Index)
	e.POST("/", chat.StreamPrompt)
	e.GET("/health", chat.HealthCheck)

	s := &Server{echo: e, addr: cfg.Addr}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start() error {
	log.With(zap.String("addr", s.addr)).Info("Starting server")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	for _, fn := range s.closers {
		fn()
	}
	return s.echo.Shutdown(ctx)
}

// requestContext carries the request id and client address into the request
// context so log.WithCtx can pick them up further down.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		c.SetRequest(req.WithContext(log.WithRequest(req.Context(), id, c.RealIP())))
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := log.WithCtx(c.Request().Context()).With(
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			if v.Error != nil {
				logger.Warn("Request failed", zap.Error(v.Error))
				return nil
			}
			logger.Info("Request served")
			return nil
		},
	})
}
