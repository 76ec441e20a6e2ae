// Package trophy is the top-level entry point: a small builder that wires the
// signer, transport, and collaborators into a ready-to-use client.
package trophy

import (
	"log/slog"
	"net/http"

	"trophykit/client"
	"trophykit/core"
	"trophykit/credstore/memory"
	"trophykit/realtime"
	"trophykit/sign"
	"trophykit/transport"
)

// Option configures the client builder.
type Option func(*config)

type config struct {
	store      client.CredentialStore
	avatars    client.AvatarCache
	hub        *realtime.Hub
	httpClient *http.Client
	logger     *slog.Logger
	digest     sign.Algo
}

// WithStorage sets the credential persistence adapter.
func WithStorage(s client.CredentialStore) Option { return func(c *config) { c.store = s } }

// WithAvatarCache wires an avatar cache that receives profile avatar URLs.
func WithAvatarCache(a client.AvatarCache) Option { return func(c *config) { c.avatars = a } }

// WithRealtime wires a realtime hub to receive all client events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(hc *http.Client) Option { return func(c *config) { c.httpClient = hc } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithDigest selects the URL signature algorithm.
func WithDigest(a sign.Algo) Option { return func(c *config) { c.digest = a } }

// New builds a configured client. If not provided, defaults are used:
//   - storage: in-memory
//   - digest: MD5
//   - http client: transport default with its standard timeout
func New(baseURL string, identity core.GameIdentity, opts ...Option) *client.Client {
	cfg := &config{digest: sign.AlgoMD5}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	signer := sign.New(baseURL, identity, cfg.digest)
	tr := transport.New(cfg.httpClient, cfg.logger)
	return client.New(signer, tr, cfg.store, cfg.avatars, cfg.hub, cfg.logger)
}
