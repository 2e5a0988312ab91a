package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"hackbutton/pkg/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormDB wraps the GORM database connection and implements Database interface
type GormDB struct {
	db *gorm.DB
}

// Ensure GormDB implements Database interface
var _ Database = (*GormDB)(nil)

// NewGormDB creates a new GORM database connection
func NewGormDB(host, port, user, password, dbname, sslmode string) (*GormDB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	// Configure GORM logger
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database with GORM")

	gormDB := &GormDB{db: db}

	// Auto-migrate the schema
	if err := gormDB.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return gormDB, nil
}

// AutoMigrate runs database migrations
func (g *GormDB) AutoMigrate() error {
	return g.db.AutoMigrate(&models.GormLeaderboardEntry{})
}

// Close closes the database connection
func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindBest retrieves the entry for (nickname, mode), or nil if absent
func (g *GormDB) FindBest(nickname string, hardMode bool) (*models.LeaderboardEntry, error) {
	var row models.GormLeaderboardEntry
	result := g.db.Where("nickname = ? AND is_hard_mode = ?", nickname, hardMode).
		Order("score DESC").
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find entry: %w", result.Error)
	}

	return row.ToEntry(), nil
}

// DeleteEntry removes the entry for (nickname, mode)
func (g *GormDB) DeleteEntry(nickname string, hardMode bool) error {
	result := g.db.Where("nickname = ? AND is_hard_mode = ?", nickname, hardMode).
		Delete(&models.GormLeaderboardEntry{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	return nil
}

// Insert persists a new entry and fills in the generated fields
func (g *GormDB) Insert(entry *models.LeaderboardEntry) error {
	row := models.GormLeaderboardEntry{
		Nickname:   entry.Nickname,
		Score:      entry.Score,
		IsHardMode: entry.IsHardMode,
	}

	result := g.db.Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to insert entry: %w", result.Error)
	}

	*entry = *row.ToEntry()
	return nil
}

// TopScores retrieves up to limit entries for the mode, best first
func (g *GormDB) TopScores(hardMode bool, limit int) ([]models.LeaderboardEntry, error) {
	var rows []models.GormLeaderboardEntry
	result := g.db.Where("is_hard_mode = ?", hardMode).
		Order("score DESC, created_at ASC, id ASC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", result.Error)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row.ToEntry())
	}

	return entries, nil
}

// SubmitIfBetter applies the upsert-if-better rule in a single transaction.
// The row lock on the existing entry closes the read-then-write race between
// concurrent submissions for the same (nickname, mode) pair.
func (g *GormDB) SubmitIfBetter(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	var stored models.GormLeaderboardEntry

	err := g.db.Transaction(func(tx *gorm.DB) error {
		var existing models.GormLeaderboardEntry
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("nickname = ? AND is_hard_mode = ?", entry.Nickname, entry.IsHardMode).
			First(&existing)

		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to find entry: %w", result.Error)
		}

		if result.Error == nil {
			if entry.Score <= existing.Score {
				return &models.ScoreNotImprovedError{Existing: existing.Score}
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
		}

		stored = models.GormLeaderboardEntry{
			Nickname:   entry.Nickname,
			Score:      entry.Score,
			IsHardMode: entry.IsHardMode,
		}
		if err := tx.Create(&stored).Error; err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored.ToEntry(), nil
}

// GetDB returns the underlying GORM database instance
func (g *GormDB) GetDB() *gorm.DB {
	return g.db
}
