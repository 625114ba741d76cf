package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marketfox/internal/pkg/middleware"
	"github.com/ManuelReschke/Marketfox/internal/pkg/usercontext"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(middleware.UserContextMiddleware)
	return app
}

// call sends body as JSON (nil for none) as userID (0 for anonymous) and
// decodes the JSON response into a map.
func call(t *testing.T, app *fiber.App, method, path string, userID uint, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != 0 {
		req.Header.Set(usercontext.HeaderUserID, strconv.FormatUint(uint64(userID), 10))
	}
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}
