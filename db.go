package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type ProgressRecord struct {
	ChatID int64
	// Next index to reveal under the sequential policy.
	UnlockedIndex int
	// Civil date of the last successful reveal; zero if never opened.
	LastOpenDate time.Time
}

func (p ProgressRecord) OpenedOn(day time.Time) bool {
	return !p.LastOpenDate.IsZero() && p.LastOpenDate.Equal(day)
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS progress (
		  chat_id INTEGER PRIMARY KEY,
		  unlocked_index INTEGER NOT NULL DEFAULT 0 CHECK (unlocked_index >= 0),
		  last_open_date TEXT,  -- yyyy-mm-dd in the configured zone
		  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ensureProgress creates the default record for a chat on first contact.
func ensureProgress(ctx context.Context, db *sql.DB, chatID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO progress (chat_id) VALUES (?)
		ON CONFLICT DO NOTHING
	`, chatID)
	return err
}

func getProgress(ctx context.Context, db *sql.DB, chatID int64) (ProgressRecord, error) {
	rec := ProgressRecord{ChatID: chatID}
	var lastOpen sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT unlocked_index, last_open_date FROM progress WHERE chat_id = ?
	`, chatID).Scan(&rec.UnlockedIndex, &lastOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return ProgressRecord{}, err
	}

	if lastOpen.Valid && lastOpen.String != "" {
		rec.LastOpenDate, err = parseDate(lastOpen.String)
		if err != nil {
			return ProgressRecord{}, fmt.Errorf("chat %d: bad last_open_date %q: %w", chatID, lastOpen.String, err)
		}
	}
	return rec, nil
}

func upsertProgress(ctx context.Context, db *sql.DB, rec ProgressRecord) error {
	if rec.UnlockedIndex < 0 {
		return fmt.Errorf("chat %d: negative unlocked index %d", rec.ChatID, rec.UnlockedIndex)
	}
	var lastOpen any
	if !rec.LastOpenDate.IsZero() {
		lastOpen = formatDate(rec.LastOpenDate)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO progress (chat_id, unlocked_index, last_open_date, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET
			unlocked_index=excluded.unlocked_index,
			last_open_date=excluded.last_open_date,
			updated_at=CURRENT_TIMESTAMP
	`, rec.ChatID, rec.UnlockedIndex, lastOpen)
	return err
}

// resetProgress restores the default record: index 0, never opened.
func resetProgress(ctx context.Context, db *sql.DB, chatID int64) error {
	return upsertProgress(ctx, db, ProgressRecord{ChatID: chatID})
}

func listProgress(ctx context.Context, db *sql.DB) ([]ProgressRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT chat_id, unlocked_index, last_open_date FROM progress ORDER BY chat_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ProgressRecord
	for rows.Next() {
		var rec ProgressRecord
		var lastOpen sql.NullString
		if err := rows.Scan(&rec.ChatID, &rec.UnlockedIndex, &lastOpen); err != nil {
			return nil, err
		}
		if lastOpen.Valid && lastOpen.String != "" {
			if rec.LastOpenDate, err = parseDate(lastOpen.String); err != nil {
				return nil, fmt.Errorf("chat %d: bad last_open_date %q: %w", rec.ChatID, lastOpen.String, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
