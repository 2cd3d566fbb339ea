package validation

import (
	"errors"
	"strings"
)

// ValidateAPIKey only checks shape; the key itself is verified against the provider
func ValidateAPIKey(key string) error {
	trimmed := strings.TrimSpace(key)

	if trimmed == "" {
		return errors.New("API key cannot be empty")
	}

	if strings.ContainsAny(trimmed, " \t\r\n") {
		return errors.New("API key must not contain whitespace")
	}

	if len(trimmed) > 256 {
		return errors.New("API key is too long")
	}

	return nil
}
