// Package middleware provides HTTP middleware for logging, metrics, tracing, and rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the application-wide structured logger. Handlers and services
// log through it with *Context variants so request correlation attributes
// ride along automatically.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// correlatedHandler decorates every record with the request, user and trace
// IDs carried in the context, when present.
type correlatedHandler struct {
	slog.Handler
}

func (h *correlatedHandler) Handle(ctx context.Context, rec slog.Record) error {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		rec.AddAttrs(slog.String("request_id", v))
	}
	if v, ok := ctx.Value(UserIDKey).(uint); ok {
		rec.AddAttrs(slog.Uint64("user_id", uint64(v)))
	}
	if v, ok := ctx.Value(TraceIDKey).(string); ok {
		rec.AddAttrs(slog.String("trace_id", v))
	}
	return h.Handler.Handle(ctx, rec)
}

func init() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if os.Getenv("LOG_LEVEL") == "debug" {
		opts.Level = slog.LevelDebug
	}

	var base slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		base = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		base = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(&correlatedHandler{base})
}

// ContextMiddleware copies correlation IDs from Fiber locals into the
// request context so deep service layers log them without knowing Fiber.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if v, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, v)
		}
		if v, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, v)
		}
		if v, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, v)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger emits one access log line per request.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if ua := c.Get("User-Agent"); ua != "" {
			attrs = append(attrs, slog.String("user_agent", ua))
		}

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			Logger.ErrorContext(c.UserContext(), "request failed", attrs...)
		} else {
			Logger.InfoContext(c.UserContext(), "request processed", attrs...)
		}
		return err
	}
}
