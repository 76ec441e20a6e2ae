package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"trophykit/core"
)

// ScoreQuery selects which slice of a score table to fetch. The zero value
// asks for the main table's default page across all users.
type ScoreQuery struct {
	// TableID selects a table; zero means the game's main table.
	TableID int
	// Limit is the requested page size, clamped server-compatibly to
	// [1, core.MaxScoreLimit]. Zero asks for the service default.
	Limit int
	// Delimiter, when set, restricts rows to one side of a sort value:
	// non-negative selects rows better than the value, negative rows worse
	// than its absolute value.
	Delimiter *int
	// OwnOnly restricts the listing to the stored user's rows and requires
	// an open session.
	OwnOnly bool
}

type scoresPayload struct {
	Scores []core.Score `json:"scores"`
}

type rankPayload struct {
	Rank int `json:"rank"`
}

// FetchScores lists score rows for the query.
func (c *Client) FetchScores(ctx context.Context, q ScoreQuery) ([]core.Score, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.fetchScores(ctx, q)
}

func (c *Client) fetchScores(ctx context.Context, q ScoreQuery) ([]core.Score, error) {
	params := map[string]string{}
	limit := q.Limit
	if limit == 0 {
		limit = core.DefaultScoreLimit
	}
	if limit = core.ClampScoreLimit(limit); limit != core.DefaultScoreLimit {
		params["limit"] = strconv.Itoa(limit)
	}
	if q.TableID != 0 {
		params["table_id"] = strconv.Itoa(q.TableID)
	}
	if q.Delimiter != nil {
		param, value := core.ScoreFilter(*q.Delimiter)
		params[param] = strconv.Itoa(value)
	}

	if q.OwnOnly {
		logged, err := c.checkSession(ctx)
		if err != nil {
			return nil, err
		}
		if !logged {
			return nil, core.ErrNotLogged
		}
	}

	payload, err := c.request(ctx, "scores", "", params, q.OwnOnly, q.OwnOnly)
	if err != nil {
		return nil, err
	}
	var out scoresPayload
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding scores payload: %w", err)
	}
	return out.Scores, nil
}

// SubmitScore records a score for the stored user and returns a local echo of
// the submitted row. An open session is required.
func (c *Client) SubmitScore(ctx context.Context, tableID int, score string, sort int, extraData string) (*core.Score, error) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	logged, err := c.checkSession(ctx)
	if err != nil {
		return nil, err
	}
	if !logged {
		return nil, core.ErrNotLogged
	}

	params := map[string]string{
		"score": score,
		"sort":  strconv.Itoa(sort),
	}
	if extraData != "" {
		params["extra_data"] = extraData
	}
	if tableID != 0 {
		params["table_id"] = strconv.Itoa(tableID)
	}
	if _, err := c.request(ctx, "scores", "add", params, true, true); err != nil {
		return nil, fmt.Errorf("submitting score: %w", err)
	}

	echo := core.Score{Score: score, Sort: sort, ExtraData: extraData}
	if creds, err := c.store.Read(ctx, c.signer.Identity.ID); err == nil && creds != nil {
		echo.User = creds.Username
		c.publish(ctx, core.NewScoreSubmitted(creds.Username, tableID, echo))
	}
	c.logger.Info("score submitted", "table_id", tableID, "sort", sort)
	return &echo, nil
}

// SubmitGuestScore records a score under a guest name instead of the stored
// user. No session or stored credentials are required beyond the game
// identity.
func (c *Client) SubmitGuestScore(ctx context.Context, tableID int, guest, score string, sort int, extraData string) (*core.Score, error) {
	name, err := core.NormalizeUsername(guest)
	if err != nil {
		return nil, fmt.Errorf("guest name: %w", err)
	}
	params := map[string]string{
		"guest": name,
		"score": score,
		"sort":  strconv.Itoa(sort),
	}
	if extraData != "" {
		params["extra_data"] = extraData
	}
	if tableID != 0 {
		params["table_id"] = strconv.Itoa(tableID)
	}
	if _, err := c.request(ctx, "scores", "add", params, false, false); err != nil {
		return nil, fmt.Errorf("submitting guest score: %w", err)
	}
	echo := core.Score{Score: score, Sort: sort, ExtraData: extraData, Guest: name}
	return &echo, nil
}

// GlobalRank returns the stored user's rank on a table, derived from their
// best score. It returns -1 when the user is not logged in, has no score on
// the table, or any step fails; rank lookups are advisory and never error.
func (c *Client) GlobalRank(ctx context.Context, tableID int) int {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()

	own, err := c.fetchScores(ctx, ScoreQuery{TableID: tableID, Limit: 1, OwnOnly: true})
	if err != nil || len(own) == 0 {
		return -1
	}

	params := map[string]string{"sort": strconv.Itoa(own[0].Sort)}
	if tableID != 0 {
		params["table_id"] = strconv.Itoa(tableID)
	}
	payload, err := c.request(ctx, "scores", "get-rank", params, false, false)
	if err != nil {
		if !errors.Is(err, core.ErrNotConfigured) {
			c.logger.Debug("rank lookup failed", "table_id", tableID, "error", err)
		}
		return -1
	}
	var out rankPayload
	if err := json.Unmarshal(payload, &out); err != nil {
		return -1
	}
	return out.Rank
}
