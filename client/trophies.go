package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"trophykit/core"
)

// TrophyFilter selects which trophies to list.
type TrophyFilter int

const (
	// TrophyAll lists every trophy the game defines.
	TrophyAll TrophyFilter = iota
	// TrophyAchieved lists only trophies the stored user has unlocked.
	TrophyAchieved
	// TrophyUnachieved lists only trophies still locked.
	TrophyUnachieved
)

// TrophyResult reports the outcome of an achieve or revoke call.
type TrophyResult int

const (
	// TrophyUpdated means the remote state changed.
	TrophyUpdated TrophyResult = iota
	// TrophyUnchanged means the trophy was already in the requested state
	// and no remote write happened.
	TrophyUnchanged
)

type trophiesPayload struct {
	Trophies []core.Trophy `json:"trophies"`
}

// FetchTrophies lists the game's trophies with the stored user's achievement
// state. An open session is required.
func (c *Client) FetchTrophies(ctx context.Context, filter TrophyFilter) ([]core.Trophy, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	logged, err := c.checkSession(ctx)
	if err != nil {
		return nil, err
	}
	if !logged {
		return nil, core.ErrNotLogged
	}
	return c.fetchTrophies(ctx, filter)
}

func (c *Client) fetchTrophies(ctx context.Context, filter TrophyFilter) ([]core.Trophy, error) {
	params := map[string]string{}
	switch filter {
	case TrophyAchieved:
		params["achieved"] = "true"
	case TrophyUnachieved:
		params["achieved"] = "false"
	}
	payload, err := c.request(ctx, "trophies", "", params, true, true)
	if err != nil {
		return nil, err
	}
	var out trophiesPayload
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding trophies payload: %w", err)
	}
	return out.Trophies, nil
}

// AchieveTrophy marks a trophy as unlocked for the stored user. The current
// state is re-fetched first; an already unlocked trophy reports
// TrophyUnchanged without a remote write, so repeated calls never duplicate
// the award.
func (c *Client) AchieveTrophy(ctx context.Context, trophyID int) (TrophyResult, error) {
	return c.setTrophy(ctx, trophyID, true)
}

// RevokeTrophy removes an unlocked trophy from the stored user. A trophy
// that is already locked reports TrophyUnchanged without a remote write.
func (c *Client) RevokeTrophy(ctx context.Context, trophyID int) (TrophyResult, error) {
	return c.setTrophy(ctx, trophyID, false)
}

func (c *Client) setTrophy(ctx context.Context, trophyID int, unlock bool) (TrophyResult, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	logged, err := c.checkSession(ctx)
	if err != nil {
		return TrophyUnchanged, err
	}
	if !logged {
		return TrophyUnchanged, core.ErrNotLogged
	}

	trophies, err := c.fetchTrophies(ctx, TrophyAll)
	if err != nil {
		return TrophyUnchanged, fmt.Errorf("fetching trophy state: %w", err)
	}
	var found *core.Trophy
	for i := range trophies {
		if trophies[i].ID == trophyID {
			found = &trophies[i]
			break
		}
	}
	if found == nil {
		return TrophyUnchanged, fmt.Errorf("trophy %d is not defined for this game", trophyID)
	}
	if found.Achieved.Unlocked == unlock {
		c.logger.Debug("trophy already in requested state", "trophy_id", trophyID, "unlocked", unlock)
		return TrophyUnchanged, nil
	}

	action := "add-achieved"
	if !unlock {
		action = "remove-achieved"
	}
	params := map[string]string{"trophy_id": strconv.Itoa(trophyID)}
	if _, err := c.request(ctx, "trophies", action, params, true, true); err != nil {
		return TrophyUnchanged, fmt.Errorf("updating trophy %d: %w", trophyID, err)
	}

	if creds, err := c.store.Read(ctx, c.signer.Identity.ID); err == nil && creds != nil {
		if unlock {
			c.publish(ctx, core.NewTrophyAchieved(creds.Username, trophyID))
		} else {
			c.publish(ctx, core.NewTrophyRemoved(creds.Username, trophyID))
		}
	}
	c.logger.Info("trophy updated", "trophy_id", trophyID, "unlocked", unlock)
	return TrophyUpdated, nil
}
