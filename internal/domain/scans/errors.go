package scans

import "errors"

// Failure taxonomy for one scan attempt. Every error that crosses the
// orchestrator boundary wraps exactly one of these sentinels; callers
// only ever see the uniform result shape, never a raw error.
var (
	// ErrValidation: missing or malformed payload/URL, rejected before staging.
	ErrValidation = errors.New("invalid scan request")
	// ErrStaging: payload decode or disk write failure. Fatal, no retry.
	ErrStaging = errors.New("staging failed")
	// ErrExtraction: the external analysis capability failed or returned a
	// non-success response.
	ErrExtraction = errors.New("fingerprint extraction failed")
	// ErrUnsupportedKind: image scans are rejected explicitly.
	ErrUnsupportedKind = errors.New("content kind not supported")
)
