package core

import (
	"errors"
	"strings"
)

// Credentials is the end-user's saved username/token pair. Both fields are
// present or the pair is absent; a half-filled pair is invalid at rest.
type Credentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Valid reports whether both fields carry a value.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Username) != "" && strings.TrimSpace(c.Token) != ""
}

// GameIdentity identifies the calling game to the remote service. It is
// immutable after client construction; every signed request requires it.
type GameIdentity struct {
	ID         int    `json:"id"`
	PrivateKey string `json:"private_key"`
}

// Configured reports whether the identity can sign requests.
func (g GameIdentity) Configured() bool {
	return g.ID != 0 && g.PrivateKey != ""
}

// Score is a single score-table row. Rows fetched from the service carry the
// owner fields; rows built locally after a submission echo only the submitted
// values.
type Score struct {
	Score           string `json:"score"`
	Sort            int    `json:"sort"`
	ExtraData       string `json:"extra_data"`
	User            string `json:"user,omitempty"`
	UserID          int    `json:"user_id,omitempty"`
	Guest           string `json:"guest,omitempty"`
	Stored          string `json:"stored,omitempty"`
	StoredTimestamp int64  `json:"stored_timestamp,omitempty"`
}

// Achievement is the tagged form of the wire's bool-or-string achieved field:
// either not unlocked, or unlocked with a human-readable elapsed description.
type Achievement struct {
	Unlocked bool
	Elapsed  string
}

// Trophy is an immutable snapshot of one trophy definition plus the calling
// user's achievement state.
type Trophy struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Difficulty  string      `json:"difficulty"`
	ImageURL    string      `json:"image_url"`
	Achieved    Achievement `json:"achieved"`
}

// UserProfile is an immutable profile snapshot, re-fetched on every call.
type UserProfile struct {
	ID                    int    `json:"id"`
	Type                  string `json:"type"`
	Username              string `json:"username"`
	AvatarURL             string `json:"avatar_url"`
	SignedUp              string `json:"signed_up"`
	SignedUpTimestamp     int64  `json:"signed_up_timestamp"`
	LastLoggedIn          string `json:"last_logged_in"`
	LastLoggedInTimestamp int64  `json:"last_logged_in_timestamp"`
	Status                string `json:"status"`
	DeveloperName         string `json:"developer_name"`
	DeveloperWebsite      string `json:"developer_website"`
	DeveloperDescription  string `json:"developer_description"`
}

const (
	// DefaultScoreLimit is the service-side default page size; the limit
	// parameter is omitted when the clamped request equals it.
	DefaultScoreLimit = 10
	// MaxScoreLimit is the largest page the service accepts.
	MaxScoreLimit = 100
)

// ClampScoreLimit maps any requested limit into [1, MaxScoreLimit].
func ClampScoreLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxScoreLimit {
		return MaxScoreLimit
	}
	return limit
}

// ScoreFilter maps a signed delimiter onto the service's pair of one-sided
// range parameters: non-negative selects better_than, negative worse_than,
// both with the absolute value. Exactly one parameter is ever produced.
func ScoreFilter(delimiter int) (param string, value int) {
	if delimiter >= 0 {
		return "better_than", delimiter
	}
	return "worse_than", -delimiter
}

// NormalizeUsername trims surrounding whitespace from a username.
func NormalizeUsername(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", errors.New("empty username")
	}
	return s, nil
}
