package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client talks to the external media-analysis capability over HTTP.
// An empty fingerprint in a successful response means the service found
// no usable signal; only transport and non-2xx failures are errors.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type fingerprintRequest struct {
	FilePath string `json:"file_path"`
}

type fingerprintResponse struct {
	FingerprintHash   string   `json:"fingerprint_hash,omitempty"`
	FingerprintHashes []string `json:"fingerprint_hashes,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// AudioFingerprint returns the hash for a staged audio file, or "" when
// the service reports no signal.
func (c *Client) AudioFingerprint(ctx context.Context, localPath string) (string, error) {
	resp, err := c.post(ctx, "/v1/audio/fingerprint", fingerprintRequest{FilePath: localPath})
	if err != nil {
		return "", err
	}
	return resp.FingerprintHash, nil
}

// VideoFingerprints returns ordered per-segment hashes for a staged
// video file; an empty list is a valid no-signal outcome.
func (c *Client) VideoFingerprints(ctx context.Context, localPath string) ([]string, error) {
	resp, err := c.post(ctx, "/v1/video/fingerprint", fingerprintRequest{FilePath: localPath})
	if err != nil {
		return nil, err
	}
	return resp.FingerprintHashes, nil
}

// Ping checks the capability's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body fingerprintRequest) (*fingerprintResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analysis service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading analysis response: %w", err)
	}

	var parsed fingerprintResponse
	if len(raw) > 0 {
		// Body may not be JSON on upstream errors; keep the raw text then.
		_ = json.Unmarshal(raw, &parsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, msg)
	}

	return &parsed, nil
}
