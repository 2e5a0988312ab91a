package models

import (
	"fmt"
	"time"
)

// LeaderboardEntry is one record on a leaderboard: a nickname, the number of
// successful clicks in a timed session, and which mode the session ran in.
// Normal and hard mode form two independent boards.
type LeaderboardEntry struct {
	ID         int       `json:"id"`
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	IsHardMode bool      `json:"isHardMode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SubmitScoreRequest is the body of POST /api/leaderboard. Score is a pointer
// so a missing field can be told apart from an explicit zero.
type SubmitScoreRequest struct {
	Nickname   string `json:"nickname"`
	Score      *int   `json:"score"`
	IsHardMode bool   `json:"isHardMode"`
}

// ModeInfo describes one game mode to the client.
type ModeInfo struct {
	Mode           string `json:"mode"`
	SessionSeconds int    `json:"sessionSeconds"`
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// LeaderboardUpdate is pushed to connected clients when a board changes.
type LeaderboardUpdate struct {
	Mode    string             `json:"mode"`
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardRequest asks the hub for a snapshot of one board.
type LeaderboardRequest struct {
	Mode string `json:"mode"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// ScoreNotImprovedError is returned when a submission does not beat the
// player's standing high score for the mode. The message is shown to the
// player as-is, so it carries the current high score.
type ScoreNotImprovedError struct {
	Existing int
}

func (e *ScoreNotImprovedError) Error() string {
	return fmt.Sprintf("Your current high score is %d. Only higher scores can be submitted to the leaderboard!", e.Existing)
}

// IsHardModeParam maps a route parameter to a mode. The literal "hard"
// selects the hard board; anything else, including an empty parameter,
// selects the normal board.
func IsHardModeParam(param string) bool {
	return param == "hard"
}

// ModeName returns the display name for a mode flag.
func ModeName(hardMode bool) string {
	if hardMode {
		return "hard"
	}
	return "normal"
}
