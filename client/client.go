// Package client implements the authenticated API client: request signing,
// session lifecycle, and the score/trophy/friend/profile operations built on
// top of them.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"trophykit/core"
	"trophykit/realtime"
	"trophykit/sign"
	"trophykit/transport"
)

// CredentialStore abstracts persistence of the saved username/token pair.
// Read returns (nil, nil) when nothing is stored; Write with nil clears.
type CredentialStore interface {
	Read(ctx context.Context, gameID int) (*core.Credentials, error)
	Write(ctx context.Context, gameID int, creds *core.Credentials) error
}

// AvatarCache receives avatar URLs for background fetch-and-decode.
type AvatarCache interface {
	Request(ctx context.Context, userID int, avatarURL string)
}

// Client talks to the game-network API on behalf of one game identity.
// Credentials live in the store, never in the struct; session state lives on
// the server and is only ever observed via CheckSession.
type Client struct {
	signer    sign.Signer
	transport *transport.Transport
	store     CredentialStore
	avatars   AvatarCache   // optional
	hub       *realtime.Hub // optional
	logger    *slog.Logger

	// sessMu serializes credential replacement and every operation that
	// checks-then-acts on session state.
	sessMu sync.Mutex

	// warnMu guards the one-shot "no request possible" diagnostic.
	warnMu    sync.Mutex
	warnArmed bool
}

// New wires a Client. signer must carry a configured identity; store and
// tr must be non-nil. avatars and hub are optional collaborators.
func New(signer sign.Signer, tr *transport.Transport, store CredentialStore, avatars AvatarCache, hub *realtime.Hub, logger *slog.Logger) *Client {
	if tr == nil || store == nil {
		panic("client.New requires non-nil transport and credential store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		signer:    signer,
		transport: tr,
		store:     store,
		avatars:   avatars,
		hub:       hub,
		logger:    logger,
		warnArmed: true,
	}
}

// Identity returns the configured game identity.
func (c *Client) Identity() core.GameIdentity { return c.signer.Identity }

// Credentials returns the currently stored pair, or nil when logged out at
// rest.
func (c *Client) Credentials(ctx context.Context) (*core.Credentials, error) {
	return c.store.Read(ctx, c.signer.Identity.ID)
}

// request builds a signed URL for the stored credentials and performs one
// GET. A refused construction emits the one-shot diagnostic and surfaces
// core.ErrNotConfigured; no network activity happens in that case.
func (c *Client) request(ctx context.Context, resource, action string, params map[string]string, withUser, withToken bool) (json.RawMessage, error) {
	creds, err := c.store.Read(ctx, c.signer.Identity.ID)
	if err != nil {
		return nil, err
	}
	url, err := c.signer.Build(resource, action, params, creds, withUser, withToken)
	if err != nil {
		if errors.Is(err, core.ErrNotConfigured) {
			c.noteRefusal()
		}
		return nil, err
	}
	return c.transport.Fetch(ctx, url)
}

// noteRefusal logs the configuration diagnostic once; repeats stay silent
// until armDiagnostic re-arms the flag.
func (c *Client) noteRefusal() {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()
	if !c.warnArmed {
		return
	}
	c.warnArmed = false
	c.logger.Warn("no request possible: set the game identity and user credentials first")
}

// armDiagnostic re-arms the one-shot diagnostic. Called after any
// authentication attempt settles, so the next misconfiguration is reported
// again.
func (c *Client) armDiagnostic() {
	c.warnMu.Lock()
	c.warnArmed = true
	c.warnMu.Unlock()
}

// publish broadcasts ev when a hub is attached.
func (c *Client) publish(ctx context.Context, ev core.Event) {
	if c.hub != nil {
		c.hub.Broadcast(ctx, ev)
	}
}

// requestAvatar hands a profile's avatar to the cache when one is attached.
func (c *Client) requestAvatar(ctx context.Context, profile *core.UserProfile) {
	if c.avatars != nil && profile != nil {
		c.avatars.Request(ctx, profile.ID, profile.AvatarURL)
	}
}
