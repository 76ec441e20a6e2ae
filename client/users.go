package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"trophykit/core"
)

type usersPayload struct {
	Users []core.UserProfile `json:"users"`
}

// FetchProfile fetches a public profile by username. No session is required.
func (c *Client) FetchProfile(ctx context.Context, username string) (*core.UserProfile, error) {
	name, err := core.NormalizeUsername(username)
	if err != nil {
		return nil, err
	}
	return c.fetchUser(ctx, map[string]string{"username": name})
}

// FetchProfileByID fetches a public profile by numeric user id.
func (c *Client) FetchProfileByID(ctx context.Context, userID int) (*core.UserProfile, error) {
	return c.fetchUser(ctx, map[string]string{"user_id": strconv.Itoa(userID)})
}

// fetchOwnProfile fetches the stored user's own profile. Callers hold sessMu.
func (c *Client) fetchOwnProfile(ctx context.Context) (*core.UserProfile, error) {
	payload, err := c.request(ctx, "users", "", nil, true, false)
	if err != nil {
		return nil, err
	}
	return decodeSingleUser(payload)
}

func (c *Client) fetchUser(ctx context.Context, params map[string]string) (*core.UserProfile, error) {
	payload, err := c.request(ctx, "users", "", params, false, false)
	if err != nil {
		return nil, err
	}
	profile, err := decodeSingleUser(payload)
	if err != nil {
		return nil, err
	}
	c.requestAvatar(ctx, profile)
	return profile, nil
}

func decodeSingleUser(payload json.RawMessage) (*core.UserProfile, error) {
	var out usersPayload
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding users payload: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("users payload is empty")
	}
	return &out.Users[0], nil
}
