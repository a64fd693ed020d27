package middleware

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestValidateContentKind(t *testing.T) {
	for _, kind := range []string{"text", "audio", "video", "image", " Audio ", "TEXT"} {
		if err := ValidateContentKind(kind); err != nil {
			t.Errorf("ValidateContentKind(%q) = %v, want nil", kind, err)
		}
	}
	for _, kind := range []string{"", "hologram", "mp3", "aud io"} {
		if err := ValidateContentKind(kind); err == nil {
			t.Errorf("ValidateContentKind(%q) = nil, want error", kind)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://pirate.example.com/page",
		"http://example.org",
		"https://example.com/a/b?c=d",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := map[string]string{
		"":                          "empty",
		"   ":                       "blank",
		"ftp://example.com/file":    "scheme",
		"example.com/no-scheme":     "scheme",
		"https://":                  "host",
		"http://localhost:8080/x":   "localhost",
		"http://127.0.0.1/x":        "loopback",
		"http://10.0.0.5/x":         "private range",
		"http://192.168.1.10/x":     "private range",
		"https://[::1]/internal":    "loopback v6",
	}
	for u, why := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error (%s)", u, why)
		}
	}
}

func TestValidatePayloadBase64(t *testing.T) {
	if err := ValidatePayloadBase64("", 1024); err != nil {
		t.Fatalf("empty payload: %v", err)
	}

	small := base64.StdEncoding.EncodeToString([]byte("tiny"))
	if err := ValidatePayloadBase64(small, 1024); err != nil {
		t.Fatalf("small payload: %v", err)
	}

	big := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 2048)))
	if err := ValidatePayloadBase64(big, 1024); err == nil {
		t.Fatal("oversized payload passed the size check")
	}

	if err := ValidatePayloadBase64(big, 0); err != nil {
		t.Fatalf("maxBytes 0 means unbounded: %v", err)
	}
}
