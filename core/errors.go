package core

import "errors"

// Error kinds for the client. Operations wrap these sentinels so callers can
// classify outcomes with errors.Is without parsing messages.
var (
	// ErrNotConfigured: game identity or stored credentials are missing, so
	// no request could be built. No network activity happened.
	ErrNotConfigured = errors.New("no request possible: identity or credentials missing")

	// ErrTransport: the request was issued but failed below the API layer
	// (network error, non-2xx status, malformed body).
	ErrTransport = errors.New("transport failure")

	// ErrRemote: a well-formed response reported success=false.
	ErrRemote = errors.New("remote call rejected")

	// ErrAuth: the stored or supplied credentials failed users/auth.
	ErrAuth = errors.New("authentication failed")

	// ErrNotLogged: the operation requires an open session and the last
	// sessions/check reported none.
	ErrNotLogged = errors.New("no open session")
)
