package middleware

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ValidateSessionID accepts canonical UUIDs only.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

// ValidateBackendURL checks a configured service endpoint.
// Loopback and private hosts are allowed: the analysis service usually runs next to us.
func ValidateBackendURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	return nil
}

// CleanUploadName keeps only the base name of a client-supplied filename.
func CleanUploadName(name string) string {
	name = SanitizeString(strings.ReplaceAll(name, `\`, "/"))
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
