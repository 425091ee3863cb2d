package model

import (
	"errors"
	"fmt"
)

// UpstreamError reports a failed call to the origin repository host.
// It is fatal to a pipeline run.
type UpstreamError struct {
	Op         string // e.g. "get branch", "get tree", "get contents src/a.py"
	StatusCode int    // HTTP status, 0 for transport failures
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GitHub API error %d: %s: %v", e.StatusCode, e.Op, e.Err)
	}
	return fmt.Sprintf("GitHub API error: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ConversionFormatError reports a backend reply that does not carry the
// required {"files":[{path, content}]} envelope.
type ConversionFormatError struct {
	Reason string
	Err    error
}

func (e *ConversionFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion format error: %s: %v", e.Reason, e.Err)
	}
	return "conversion format error: " + e.Reason
}

func (e *ConversionFormatError) Unwrap() error { return e.Err }

// ConfigurationError reports a required setting that is absent.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing %s", e.Key)
}

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsConversionFormat reports whether err is, or wraps, a ConversionFormatError.
func IsConversionFormat(err error) bool {
	var fe *ConversionFormatError
	return errors.As(err, &fe)
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
