package client

import (
	"context"
	"errors"
	"fmt"

	"trophykit/core"
)

// CheckSession asks the service whether the stored credentials currently
// correspond to an open session. This is a network round trip on every call;
// the answer is never cached and can go stale between checks.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.checkSession(ctx)
}

func (c *Client) checkSession(ctx context.Context) (bool, error) {
	_, err := c.request(ctx, "sessions", "check", nil, true, true)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, core.ErrRemote), errors.Is(err, core.ErrNotConfigured):
		// a clean "no" from the service, or nothing to ask with
		return false, nil
	default:
		return false, err
	}
}

// Login opens a session for the stored credentials and returns the user's
// profile as confirmation. The profile's avatar is handed to the image cache.
func (c *Client) Login(ctx context.Context) (*core.UserProfile, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) (*core.UserProfile, error) {
	if _, err := c.request(ctx, "sessions", "open", nil, true, true); err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	profile, err := c.fetchOwnProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching profile after login: %w", err)
	}
	c.requestAvatar(ctx, profile)
	c.publish(ctx, core.NewSessionOpened(profile.Username))
	c.logger.Info("session opened", "username", profile.Username)
	return profile, nil
}

// Logout closes the current session. It is best-effort: the service may
// still report an open session afterwards, which is logged but not retried.
func (c *Client) Logout(ctx context.Context) error {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.logout(ctx)
}

func (c *Client) logout(ctx context.Context) error {
	creds, _ := c.store.Read(ctx, c.signer.Identity.ID)

	if _, err := c.request(ctx, "sessions", "close", nil, true, true); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}

	if logged, err := c.checkSession(ctx); err == nil && logged {
		c.logger.Warn("session still open after close")
		return nil
	}
	if creds != nil {
		c.publish(ctx, core.NewSessionClosed(creds.Username))
	}
	return nil
}

// PingSession keeps the open session alive. It refuses with
// core.ErrNotLogged when no session is open; a failed ping means the player
// is disconnected, which is logged and left for the next CheckSession to
// observe.
func (c *Client) PingSession(ctx context.Context) error {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	logged, err := c.checkSession(ctx)
	if err != nil {
		return err
	}
	if !logged {
		return core.ErrNotLogged
	}
	if _, err := c.request(ctx, "sessions", "ping", nil, true, true); err != nil {
		c.logger.Warn("session ping failed; player disconnected", "error", err)
		return fmt.Errorf("pinging session: %w", err)
	}
	return nil
}

// Bootstrap restores a saved login at startup: it authenticates the stored
// credentials and opens a session. An authentication failure wipes the
// stored pair - the saved token is no longer valid - and re-arms the
// configuration diagnostic. Already being logged in is a no-op.
func (c *Client) Bootstrap(ctx context.Context) error {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	creds, err := c.store.Read(ctx, c.signer.Identity.ID)
	if err != nil {
		return err
	}
	if creds == nil || !creds.Valid() {
		c.noteRefusal()
		return core.ErrNotConfigured
	}

	if logged, err := c.checkSession(ctx); err != nil {
		return err
	} else if logged {
		c.logger.Debug("bootstrap skipped: session already open", "username", creds.Username)
		return nil
	}

	if err := c.auth(ctx); err != nil {
		if errors.Is(err, core.ErrAuth) {
			// stored token is stale; drop it so the game asks the user again
			if werr := c.store.Write(ctx, c.signer.Identity.ID, nil); werr != nil {
				c.logger.Error("wiping stale credentials failed", "error", werr)
			}
			c.armDiagnostic()
			c.logger.Warn("stored credentials rejected; wiped", "username", creds.Username)
		}
		return err
	}
	c.armDiagnostic()

	if _, err := c.login(ctx); err != nil {
		return err
	}
	return nil
}

// SetUserInfo replaces the stored credentials. Any session under the old
// pair is closed first; if the new pair fails authentication the old pair is
// restored. The rollback is best-effort: side effects of the failed attempt
// on the service are not undone. Passing empty values clears the stored
// pair.
func (c *Client) SetUserInfo(ctx context.Context, username, token string) error {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	gameID := c.signer.Identity.ID
	old, err := c.store.Read(ctx, gameID)
	if err != nil {
		return err
	}

	if old != nil {
		if err := c.logout(ctx); err != nil {
			c.logger.Debug("closing old session failed", "error", err)
		}
	}

	next := core.Credentials{Username: username, Token: token}
	if !next.Valid() {
		// empty pair means "forget me"
		return c.store.Write(ctx, gameID, nil)
	}

	if err := c.store.Write(ctx, gameID, &next); err != nil {
		return err
	}

	if err := c.auth(ctx); err != nil {
		if errors.Is(err, core.ErrAuth) {
			if werr := c.store.Write(ctx, gameID, old); werr != nil {
				c.logger.Error("restoring previous credentials failed", "error", werr)
			}
			c.logger.Warn("new credentials rejected; previous pair restored", "username", username)
		}
		return err
	}
	c.armDiagnostic()
	return nil
}

// auth verifies the stored credentials against users/auth. A remote
// rejection maps to core.ErrAuth.
func (c *Client) auth(ctx context.Context) error {
	if _, err := c.request(ctx, "users", "auth", nil, true, true); err != nil {
		if errors.Is(err, core.ErrRemote) {
			return fmt.Errorf("%w: %v", core.ErrAuth, err)
		}
		return err
	}
	return nil
}
