// Package leaderboard arbitrates score submissions and serves ranked reads.
package leaderboard

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hackbutton/internal/cache"
	"hackbutton/internal/config"
	"hackbutton/internal/database"
	"hackbutton/pkg/models"
)

// Validation errors for submissions. All of them classify as invalid input.
var (
	ErrNicknameRequired = errors.New("nickname is required")
	ErrScoreRequired    = errors.New("score is required")
	ErrScoreNegative    = errors.New("score must not be negative")
)

// Notifier receives the refreshed top list after an accepted submission.
// The websocket hub implements it; a nil notifier disables the feed.
type Notifier interface {
	NotifyLeaderboard(hardMode bool, entries []models.LeaderboardEntry)
}

// Service applies the upsert-if-better policy against the store and serves
// ranked top-N queries. It is stateless; the store is the only shared
// resource.
type Service struct {
	db       database.Database
	cache    cache.Cache
	notifier Notifier
	cfg      *config.Config
}

// NewService creates a leaderboard service. cache and notifier may be nil.
func NewService(db database.Database, redisCache cache.Cache, cfg *config.Config) *Service {
	return &Service{
		db:    db,
		cache: redisCache,
		cfg:   cfg,
	}
}

// SetNotifier attaches the live-update sink. Called once during wiring,
// before the server starts accepting requests.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit validates a submission and applies the upsert-if-better rule.
// It returns the stored entry, a validation error, a
// *models.ScoreNotImprovedError, or a storage error.
func (s *Service) Submit(nickname string, score *int, hardMode bool) (*models.LeaderboardEntry, error) {
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if score == nil {
		return nil, ErrScoreRequired
	}
	if *score < 0 {
		return nil, ErrScoreNegative
	}

	entry := &models.LeaderboardEntry{
		Nickname:   nickname,
		Score:      *score,
		IsHardMode: hardMode,
	}

	stored, err := s.db.SubmitIfBetter(entry)
	if err != nil {
		return nil, err
	}

	s.refreshMode(hardMode)

	return stored, nil
}

// TopScores returns up to the configured top size for a mode, best first.
func (s *Service) TopScores(hardMode bool) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		if entries, err := s.cache.GetTopScores(hardMode); err == nil {
			return entries, nil
		}
	}

	entries, err := s.db.TopScores(hardMode, s.cfg.Leaderboard.TopSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top scores: %w", err)
	}

	if s.cache != nil {
		ttl := time.Duration(s.cfg.Leaderboard.CacheTTL) * time.Second
		if err := s.cache.SetTopScores(hardMode, entries, ttl); err != nil {
			log.Printf("Failed to cache %s leaderboard: %v", models.ModeName(hardMode), err)
		}
	}

	return entries, nil
}

// Modes describes the configured game modes for the client.
func (s *Service) Modes() []models.ModeInfo {
	return []models.ModeInfo{
		{Mode: "normal", SessionSeconds: s.cfg.Game.NormalSessionSeconds},
		{Mode: "hard", SessionSeconds: s.cfg.Game.HardSessionSeconds},
	}
}

// refreshMode drops the stale cached list and pushes the fresh one to any
// connected spectators. Failures here never fail the submission.
func (s *Service) refreshMode(hardMode bool) {
	if s.cache != nil {
		if err := s.cache.InvalidateTopScores(hardMode); err != nil {
			log.Printf("Failed to invalidate %s leaderboard cache: %v", models.ModeName(hardMode), err)
		}
	}

	if s.notifier == nil {
		return
	}

	entries, err := s.TopScores(hardMode)
	if err != nil {
		log.Printf("Failed to load %s leaderboard for broadcast: %v", models.ModeName(hardMode), err)
		return
	}
	s.notifier.NotifyLeaderboard(hardMode, entries)
}

// IsInvalidInput reports whether err is a submission validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrNicknameRequired) ||
		errors.Is(err, ErrScoreRequired) ||
		errors.Is(err, ErrScoreNegative)
}
