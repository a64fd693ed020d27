package middleware

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Input validation and sanitization utilities

// ValidateContentKind checks the scan kind against the supported set.
// "image" is well-formed but unsupported; the pipeline rejects it with
// its own explicit outcome, so it passes here.
func ValidateContentKind(kind string) error {
	allowed := map[string]bool{
		"text":  true,
		"audio": true,
		"video": true,
		"image": true,
	}
	if !allowed[strings.ToLower(strings.TrimSpace(kind))] {
		return fmt.Errorf("invalid content kind: %s (allowed: text, audio, video, image)", kind)
	}
	return nil
}

// ValidateURL validates the suspect page URL
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("target URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (allowed: http, https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL is missing a host")
	}

	// Check for localhost/internal IPs (SSRF protection)
	host := strings.ToLower(u.Hostname())
	blocked := []string{"localhost", "127.0.0.1", "0.0.0.0", "[::]", "::1"}
	for _, b := range blocked {
		if strings.Contains(host, b) {
			return fmt.Errorf("localhost/internal IPs are not allowed")
		}
	}

	// Block private IP ranges (basic check)
	if strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "172.16.") ||
		strings.HasPrefix(host, "172.31.") {
		return fmt.Errorf("private IP ranges are not allowed")
	}

	return nil
}

// ValidatePayloadBase64 gives callers an early size/shape check before a
// payload ever reaches the stager.
func ValidatePayloadBase64(payload string, maxBytes int64) error {
	if payload == "" {
		return nil // optional at this layer, the pipeline enforces presence per kind
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes {
		return fmt.Errorf("payload exceeds maximum size of %d bytes", maxBytes)
	}
	return nil
}
