package validation

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxUploadSize       int
	AllowedExtensions   []string
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed scrape and upload requests before they
// reach the handlers: wrong content type, non-web seed URLs, oversized
// or unsupported document uploads.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 25 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".pdf", ".xlsx", ".xls"}
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/scrape") && c.Method() == fiber.MethodPost {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			seedURL, ok := req["url"].(string)
			if !ok || seedURL == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "url is required and must be a string",
				})
			}

			if !isValidSeedURL(seedURL) {
				cfg.Logger.Warn("Rejected seed URL",
					zap.String("ip", c.IP()),
					zap.String("url", seedURL),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "url must be an absolute http or https URL",
				})
			}
		}

		if strings.Contains(path, "/api/v1/documents") && c.Method() == fiber.MethodPost {
			fileHeader, err := c.FormFile("file")
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Missing file upload",
				})
			}

			if fileHeader.Size > int64(cfg.MaxUploadSize) {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Uploaded document exceeds maximum size",
				})
			}

			ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
			allowed := false
			for _, allowedExt := range cfg.AllowedExtensions {
				if ext == allowedExt {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported document format; upload a .pdf, .xlsx or .xls file",
				})
			}
		}

		return c.Next()
	}
}

func isValidSeedURL(seedURL string) bool {
	u, err := url.Parse(seedURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}
