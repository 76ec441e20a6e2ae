package core

import "time"

// EventType enumerates client-side domain events.
type EventType string

const (
	EventSessionOpened  EventType = "session_opened"
	EventSessionClosed  EventType = "session_closed"
	EventScoreSubmitted EventType = "score_submitted"
	EventTrophyAchieved EventType = "trophy_achieved"
	EventTrophyRemoved  EventType = "trophy_removed"
)

// Event represents an immutable client event, published after the remote
// call it describes has succeeded.
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	Username string    `json:"username,omitempty"`
	TableID  int       `json:"table_id,omitempty"`
	Score    *Score    `json:"score,omitempty"`
	TrophyID int       `json:"trophy_id,omitempty"`
}

func NewSessionOpened(username string) Event {
	return Event{Type: EventSessionOpened, Time: time.Now().UTC(), Username: username}
}

func NewSessionClosed(username string) Event {
	return Event{Type: EventSessionClosed, Time: time.Now().UTC(), Username: username}
}

func NewScoreSubmitted(username string, tableID int, score Score) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), Username: username, TableID: tableID, Score: &score}
}

func NewTrophyAchieved(username string, trophyID int) Event {
	return Event{Type: EventTrophyAchieved, Time: time.Now().UTC(), Username: username, TrophyID: trophyID}
}

func NewTrophyRemoved(username string, trophyID int) Event {
	return Event{Type: EventTrophyRemoved, Time: time.Now().UTC(), Username: username, TrophyID: trophyID}
}
