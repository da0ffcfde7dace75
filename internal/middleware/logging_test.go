package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithGroupID(ctx, 42)
	logger.With(slog.String("badge", "post_count")).InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "group_id=42")
	assert.Contains(t, out, "badge=post_count")
}

func TestContextMiddleware_CopiesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "abc")
		c.Locals("traceID", "trace-9")
		return c.Next()
	})
	app.Use(ContextMiddleware())

	var gotRID, gotTID string
	app.Get("/", func(c *fiber.Ctx) error {
		gotRID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotTID, _ = c.UserContext().Value(TraceIDKey).(string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "abc", gotRID)
	assert.Equal(t, "trace-9", gotTID)
}
