package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) *http.Response {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	resp := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", map[string]string{"key": "value"})
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
}

func TestSendSuccessWithStatus(t *testing.T) {
	resp := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "created", nil)
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSendError(t *testing.T) {
	resp := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusNotFound, "thread not found")
	})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.False(t, payload.Success)
	require.Equal(t, "thread not found", payload.Message)
}
