package database

import "hackbutton/pkg/models"

// Database defines the interface for leaderboard persistence. A player holds
// at most one entry per mode; SubmitIfBetter enforces that atomically, while
// the point operations are exposed for callers that need them individually.
type Database interface {
	// FindBest returns the entry for (nickname, mode), or nil if absent.
	FindBest(nickname string, hardMode bool) (*models.LeaderboardEntry, error)

	// DeleteEntry removes the entry for (nickname, mode); no-op if absent.
	DeleteEntry(nickname string, hardMode bool) error

	// Insert persists a new entry and fills in the generated id and createdAt.
	Insert(entry *models.LeaderboardEntry) error

	// TopScores returns up to limit entries for the mode, best first. Ties
	// rank the earlier entry higher.
	TopScores(hardMode bool, limit int) ([]models.LeaderboardEntry, error)

	// SubmitIfBetter applies the upsert-if-better rule in one transaction:
	// insert when the pair has no entry, replace when the new score is
	// strictly higher, otherwise *models.ScoreNotImprovedError.
	SubmitIfBetter(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error)

	// Connection management
	Close() error
}
