package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{Logger: zap.NewNop()}))

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/api/v1/scrape", ok)
	app.Post("/api/v1/documents", ok)
	app.Post("/api/v1/other", ok)

	return app
}

func postBody(t *testing.T, app *fiber.App, path, contentType, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestValidationNilLoggerDefaults(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(Config{}))
	app.Post("/api/v1/scrape", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	// hits the rejected-seed warning path, which logs
	resp := postBody(t, app, "/api/v1/scrape", "application/json", `{"url":"/rooms","hotel_id":"h"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidationRejectsUnsupportedContentType(t *testing.T) {
	app := newApp()

	resp := postBody(t, app, "/api/v1/other", "text/xml", "<x/>")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestValidationScrapeNeedsAbsoluteURL(t *testing.T) {
	app := newApp()

	resp := postBody(t, app, "/api/v1/scrape", "application/json", `{"url":"/rooms","hotel_id":"h"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postBody(t, app, "/api/v1/scrape", "application/json", `{"url":"ftp://x.com","hotel_id":"h"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postBody(t, app, "/api/v1/scrape", "application/json", `{"url":"https://example.com","hotel_id":"h"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidationScrapeNeedsURL(t *testing.T) {
	app := newApp()

	resp := postBody(t, app, "/api/v1/scrape", "application/json", `{"hotel_id":"h"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postBody(t, app, "/api/v1/scrape", "application/json", "{broken")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func upload(t *testing.T, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestValidationUploadExtension(t *testing.T) {
	app := newApp()

	body, contentType := upload(t, "notes.exe", 10)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	body, contentType = upload(t, "rates.xlsx", 10)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestValidationUploadSizeLimit(t *testing.T) {
	app := fiber.New(fiber.Config{BodyLimit: 1 << 20})
	app.Use(Middleware(Config{MaxUploadSize: 1024, Logger: zap.NewNop()}))
	app.Post("/api/v1/documents", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	body, contentType := upload(t, "big.pdf", 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
