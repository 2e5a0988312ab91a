package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"hackbutton/pkg/models"

	_ "github.com/lib/pq"
)

// PostgresDB wraps a plain database/sql connection and implements the
// Database interface without the ORM.
type PostgresDB struct {
	db *sql.DB
}

// Ensure PostgresDB implements Database interface
var _ Database = (*PostgresDB)(nil)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(host, port, user, password, dbname, sslmode string) (*PostgresDB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Successfully connected to PostgreSQL database")

	pg := &PostgresDB{db: db}

	if err := pg.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return pg, nil
}

// createSchema bootstraps the leaderboard table and its uniqueness constraint
func (p *PostgresDB) createSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard (
			id SERIAL PRIMARY KEY,
			nickname VARCHAR(255) NOT NULL,
			score INTEGER NOT NULL,
			is_hard_mode BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_leaderboard_nickname_mode
			ON leaderboard (nickname, is_hard_mode)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_score
			ON leaderboard (score)`,
	}

	for _, query := range queries {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// FindBest retrieves the entry for (nickname, mode), or nil if absent
func (p *PostgresDB) FindBest(nickname string, hardMode bool) (*models.LeaderboardEntry, error) {
	query := `
		SELECT id, nickname, score, is_hard_mode, created_at
		FROM leaderboard
		WHERE nickname = $1 AND is_hard_mode = $2
		ORDER BY score DESC
		LIMIT 1`

	entry := &models.LeaderboardEntry{}
	err := p.db.QueryRow(query, nickname, hardMode).Scan(
		&entry.ID, &entry.Nickname, &entry.Score, &entry.IsHardMode, &entry.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}

	return entry, nil
}

// DeleteEntry removes the entry for (nickname, mode)
func (p *PostgresDB) DeleteEntry(nickname string, hardMode bool) error {
	query := `DELETE FROM leaderboard WHERE nickname = $1 AND is_hard_mode = $2`

	if _, err := p.db.Exec(query, nickname, hardMode); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	return nil
}

// Insert persists a new entry and fills in the generated fields
func (p *PostgresDB) Insert(entry *models.LeaderboardEntry) error {
	query := `
		INSERT INTO leaderboard (nickname, score, is_hard_mode)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := p.db.QueryRow(query, entry.Nickname, entry.Score, entry.IsHardMode).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

// TopScores retrieves up to limit entries for the mode, best first
func (p *PostgresDB) TopScores(hardMode bool, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT id, nickname, score, is_hard_mode, created_at
		FROM leaderboard
		WHERE is_hard_mode = $1
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $2`

	rows, err := p.db.Query(query, hardMode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.ID, &entry.Nickname, &entry.Score,
			&entry.IsHardMode, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return entries, nil
}

// SubmitIfBetter applies the upsert-if-better rule in a single transaction
// with a row lock on the existing (nickname, mode) entry.
func (p *PostgresDB) SubmitIfBetter(entry *models.LeaderboardEntry) (*models.LeaderboardEntry, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingScore int
	err = tx.QueryRow(
		`SELECT score FROM leaderboard WHERE nickname = $1 AND is_hard_mode = $2 FOR UPDATE`,
		entry.Nickname, entry.IsHardMode).Scan(&existingScore)

	switch {
	case err == nil:
		if entry.Score <= existingScore {
			return nil, &models.ScoreNotImprovedError{Existing: existingScore}
		}
		if _, err := tx.Exec(
			`DELETE FROM leaderboard WHERE nickname = $1 AND is_hard_mode = $2`,
			entry.Nickname, entry.IsHardMode); err != nil {
			return nil, fmt.Errorf("failed to delete entry: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// First submission for this pair
	default:
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}

	stored := &models.LeaderboardEntry{
		Nickname:   entry.Nickname,
		Score:      entry.Score,
		IsHardMode: entry.IsHardMode,
	}
	err = tx.QueryRow(
		`INSERT INTO leaderboard (nickname, score, is_hard_mode) VALUES ($1, $2, $3) RETURNING id, created_at`,
		stored.Nickname, stored.Score, stored.IsHardMode).
		Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stored, nil
}
