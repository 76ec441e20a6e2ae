// Package transport executes signed API requests: exactly one GET per
// logical call, envelope parsing, and failure classification.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"trophykit/core"
)

// DefaultTimeout bounds a single request when the caller's http.Client has
// no timeout of its own.
const DefaultTimeout = 30 * time.Second

// Transport issues GET requests and normalizes their envelopes.
type Transport struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Transport. A nil httpClient gets a default with
// DefaultTimeout; a nil logger falls back to slog.Default().
func New(httpClient *http.Client, logger *slog.Logger) *Transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{httpClient: httpClient, logger: logger}
}

// Fetch performs one GET against a signed URL and returns the response
// payload. Network, HTTP, and parse failures wrap core.ErrTransport; a
// well-formed envelope with success=false wraps core.ErrRemote with the
// service's message when one was given.
func (t *Transport) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error("request failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Error("reading response failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: read body: %v", core.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Error("unexpected status", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", core.ErrTransport, resp.StatusCode)
	}

	payload, env, err := core.ParseEnvelope(body)
	if err != nil {
		t.logger.Error("envelope parse failed", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	if !bool(env.Success) {
		if env.Message != "" {
			return nil, fmt.Errorf("%w: %s", core.ErrRemote, env.Message)
		}
		return nil, core.ErrRemote
	}
	return payload, nil
}
