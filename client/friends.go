package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"trophykit/core"
)

type friendsPayload struct {
	Friends []struct {
		FriendID int `json:"friend_id"`
	} `json:"friends"`
}

// Friends returns the stored user's friends as full profiles. The roster is
// fetched in one call and each profile in a follow-up call; a friend whose
// profile cannot be fetched is skipped with a warning, so a partial list is
// still returned. An open session is required.
func (c *Client) Friends(ctx context.Context) ([]core.UserProfile, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	logged, err := c.checkSession(ctx)
	if err != nil {
		return nil, err
	}
	if !logged {
		return nil, core.ErrNotLogged
	}

	payload, err := c.request(ctx, "friends", "", nil, true, true)
	if err != nil {
		return nil, fmt.Errorf("fetching friend roster: %w", err)
	}
	var roster friendsPayload
	if err := json.Unmarshal(payload, &roster); err != nil {
		return nil, fmt.Errorf("decoding friends payload: %w", err)
	}

	profiles := make([]core.UserProfile, 0, len(roster.Friends))
	for _, f := range roster.Friends {
		profile, err := c.fetchUser(ctx, map[string]string{"user_id": strconv.Itoa(f.FriendID)})
		if err != nil {
			c.logger.Warn("skipping friend: profile fetch failed", "friend_id", f.FriendID, "error", err)
			continue
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}
