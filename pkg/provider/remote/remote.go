// Package remote fetches chains from a configurable REST endpoint.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cafedoko/pkg/model"
	"cafedoko/pkg/normalize"
	"cafedoko/pkg/provider"
	"cafedoko/pkg/request"
)

// RequestFactory builds the outgoing request for one fetch.
type RequestFactory func(ctx context.Context) (*http.Request, error)

// NewRequestFactory returns a factory for a fixed method, URL, header set and body.
// Header values are sent as given; resolve placeholders before calling.
func NewRequestFactory(method, url string, headers map[string]string, body string) RequestFactory {
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)
	return func(ctx context.Context) (*http.Request, error) {
		var rdr io.Reader = http.NoBody
		if body != "" {
			rdr = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return nil, err
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return nil, fmt.Errorf("unsupported url scheme %q", req.URL.Scheme)
		}
		req.Header.Set("Accept", "application/json")
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}
}

// Provider issues one request per fetch and normalizes the response body.
type Provider struct {
	factory RequestFactory
	client  *request.Client
}

// New creates a remote provider.
func New(factory RequestFactory, client *request.Client) *Provider {
	return &Provider{factory: factory, client: client}
}

func (p *Provider) Name() string { return "remote" }

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]model.Chain, error) {
	req, err := p.factory(ctx)
	if err != nil {
		slog.Error("Failed to build request", "error", err)
		return nil, provider.ClassifyTransport(err)
	}

	slog.Info("Fetching cafes", "url", req.URL.Redacted())
	start := time.Now()

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, request.ErrReadBody) {
			slog.Error("Invalid response", "error", err)
			return nil, fmt.Errorf("%w: %w", provider.ErrInvalidResponse, err)
		}
		slog.Error("Request error", "error", err)
		return nil, provider.ClassifyTransport(err)
	}

	if !resp.OK() {
		msg := normalize.ErrorMessage(resp.Body)
		if msg != "" {
			slog.Error("Request failed", "status", resp.StatusCode, "message", msg)
		} else {
			slog.Error("Request failed", "status", resp.StatusCode)
		}
		return nil, &provider.StatusError{Code: resp.StatusCode, Message: msg}
	}

	chains, err := normalize.Normalize(resp.Body)
	if err != nil {
		slog.Error("Decoding error", "error", err)
		return nil, &provider.DecodeError{Err: err}
	}

	if len(chains) == 0 {
		p.client.Tracker().TrackAPIZero(request.SourceName(req.URL.Host))
	}
	slog.Info("Fetched cafes", "count", len(chains), "duration_ms", time.Since(start).Milliseconds())
	return chains, nil
}
