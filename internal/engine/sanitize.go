package engine

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
)

// Sanitize trims every string in a JSON request body and strips all HTML
// from it before the handler runs. Bodies that are not valid JSON are passed
// through untouched so the handler can reject them.
func Sanitize() fiber.Handler {
	policy := bluemonday.StrictPolicy()
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 || !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			return c.Next()
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var payload any
		if err := dec.Decode(&payload); err != nil {
			return c.Next()
		}

		clean, err := json.Marshal(sanitizeValue(policy, payload))
		if err != nil {
			return c.Next()
		}
		c.Request().SetBody(clean)
		return c.Next()
	}
}

func sanitizeValue(policy *bluemonday.Policy, v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(policy, val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[SanitizeString(policy, k)] = sanitizeValue(policy, item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(policy, item)
		}
		return out
	default:
		return v
	}
}

// SanitizeString removes all markup from s and trims surrounding whitespace.
func SanitizeString(policy *bluemonday.Policy, s string) string {
	return strings.TrimSpace(policy.Sanitize(strings.TrimSpace(s)))
}
