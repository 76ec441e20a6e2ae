package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Truthy normalizes the envelope's success indicator, which the service emits
// as a JSON boolean on some endpoints and as the strings "true"/"false" on
// others. Any other value decodes as false.
type Truthy bool

func (t *Truthy) UnmarshalJSON(b []byte) error {
	switch {
	case len(b) == 0:
		*t = false
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Truthy(strings.EqualFold(s, "true"))
	default:
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			*t = false
			return nil
		}
		*t = Truthy(v)
	}
	return nil
}

func (t Truthy) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(t))), nil
}

// Envelope is the `{success, ...}` wrapper every endpoint payload carries.
type Envelope struct {
	Success Truthy `json:"success"`
	Message string `json:"message,omitempty"`
}

// ParseEnvelope extracts the top-level response object from a raw body and
// reports whether the remote call succeeded. The returned payload still
// contains the envelope fields so callers can decode endpoint-specific data
// from it directly.
func ParseEnvelope(body []byte) (payload json.RawMessage, env Envelope, err error) {
	var outer struct {
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, Envelope{}, fmt.Errorf("malformed response body: %w", err)
	}
	if len(outer.Response) == 0 {
		return nil, Envelope{}, fmt.Errorf("response field missing")
	}
	if err := json.Unmarshal(outer.Response, &env); err != nil {
		return nil, Envelope{}, fmt.Errorf("malformed response envelope: %w", err)
	}
	return outer.Response, env, nil
}

// UnmarshalJSON decodes the wire's dual-typed achieved field: boolean false
// for a locked trophy, or an elapsed-time string (rarely boolean true) for an
// unlocked one.
func (a *Achievement) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Achievement{Unlocked: true, Elapsed: s}
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("achieved is neither bool nor string: %w", err)
	}
	*a = Achievement{Unlocked: v}
	return nil
}

func (a Achievement) MarshalJSON() ([]byte, error) {
	if a.Unlocked && a.Elapsed != "" {
		return json.Marshal(a.Elapsed)
	}
	return json.Marshal(a.Unlocked)
}
