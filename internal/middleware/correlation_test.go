package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())

	var captured string
	app.Get("/", func(c *fiber.Ctx) error {
		captured = GetCorrelationID(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, captured)
	require.Equal(t, captured, resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())

	var captured string
	app.Get("/", func(c *fiber.Ctx) error {
		captured = GetCorrelationID(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")

	_, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", captured)
}

func TestContextWithCorrelationRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "abc-123")
	require.Equal(t, "abc-123", CorrelationIDFromContext(ctx))

	require.Empty(t, CorrelationIDFromContext(context.Background()))
	require.Empty(t, CorrelationIDFromContext(nil))
}
