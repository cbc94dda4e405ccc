package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrInvalidResponse is returned when a response could not be read at all.
var ErrInvalidResponse = errors.New("invalid response from server")

// ConfigurationError reports missing or invalid provider settings.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("%s: configuration error: %s", e.Provider, e.Reason)
}

// TransportKind classifies network-layer failures.
type TransportKind string

const (
	TransportOffline TransportKind = "offline"
	TransportTimeout TransportKind = "timeout"
	TransportOther   TransportKind = "other"
)

// TransportError wraps a network-layer failure.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case TransportOffline:
		return "no network connection: " + e.Err.Error()
	case TransportTimeout:
		return "request timed out: " + e.Err.Error()
	default:
		return "request failed: " + e.Err.Error()
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response with the server's message, if any.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (code: %d) - %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server error (code: %d)", e.Code)
}

// DecodeError reports a payload that matched no known envelope or record shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ClassifyTransport wraps err in a TransportError, detecting timeouts and lost connectivity.
// An err that is already a TransportError is returned unchanged.
func ClassifyTransport(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Kind: transportKind(err), Err: err}
}

func transportKind(err error) TransportKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return TransportTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportOffline
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETDOWN) {
		return TransportOffline
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return TransportOffline
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return TransportTimeout
	}
	return TransportOther
}

// Describe renders err as the single human-readable message shown for a failed reload.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var (
		ce *ConfigurationError
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case errors.As(err, &ce):
		return "Cafe data source is not configured: " + ce.Reason
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &de):
		return de.Error()
	case errors.As(err, &te):
		return te.Error()
	case errors.Is(err, ErrInvalidResponse):
		return "The server returned an invalid response."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	}
	return err.Error()
}

// Suggestion returns a recovery hint for err, or "" when there is none.
func Suggestion(err error) string {
	var (
		ce *ConfigurationError
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return "Check the provider section of the configuration file."
	case errors.As(err, &se):
		switch {
		case se.Code >= 500:
			return "The server is temporarily unavailable. Wait a moment and try again."
		case se.Code == 401 || se.Code == 403:
			return "Authentication failed. Check the configured credentials."
		case se.Code == 429:
			return "Too many requests. Wait a moment and try again."
		default:
			return "If the problem persists, contact support."
		}
	case errors.As(err, &de):
		return "The data format may have changed. Update to the latest version."
	case errors.As(err, &te):
		switch te.Kind {
		case TransportOffline:
			return "Check your internet connection."
		case TransportTimeout:
			return "The connection timed out. Check the network and try again."
		default:
			return "Check the network connection and try again."
		}
	case errors.Is(err, ErrInvalidResponse):
		return "Wait a moment and try again. If the problem persists, contact support."
	}
	return "Wait a moment and try again."
}
