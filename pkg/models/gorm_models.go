package models

import "time"

// GormLeaderboardEntry represents a leaderboard row using GORM. The unique
// index over (nickname, is_hard_mode) makes one-entry-per-player-per-mode a
// schema constraint rather than an application convention.
type GormLeaderboardEntry struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname   string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_leaderboard_nickname_mode" json:"nickname"`
	Score      int       `gorm:"not null;index:idx_leaderboard_score" json:"score"`
	IsHardMode bool      `gorm:"not null;default:false;uniqueIndex:idx_leaderboard_nickname_mode" json:"is_hard_mode"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for GormLeaderboardEntry
func (GormLeaderboardEntry) TableName() string {
	return "leaderboard"
}

// ToEntry converts GormLeaderboardEntry to LeaderboardEntry
func (ge *GormLeaderboardEntry) ToEntry() *LeaderboardEntry {
	return &LeaderboardEntry{
		ID:         ge.ID,
		Nickname:   ge.Nickname,
		Score:      ge.Score,
		IsHardMode: ge.IsHardMode,
		CreatedAt:  ge.CreatedAt,
	}
}

// FromEntry converts LeaderboardEntry to GormLeaderboardEntry
func (ge *GormLeaderboardEntry) FromEntry(e *LeaderboardEntry) {
	ge.ID = e.ID
	ge.Nickname = e.Nickname
	ge.Score = e.Score
	ge.IsHardMode = e.IsHardMode
	ge.CreatedAt = e.CreatedAt
}
