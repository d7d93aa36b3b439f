package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"audio-sentry/models"
	"audio-sentry/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createEventsTable := `
    CREATE TABLE IF NOT EXISTS events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        kind TEXT NOT NULL,
        duration REAL NOT NULL DEFAULT 0,
        sound TEXT,
        confidence REAL NOT NULL DEFAULT 0,
        capture_path TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
    CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
    `

	_, err := db.Exec(createEventsTable)
	if err != nil {
		return fmt.Errorf("error creating events table: %s", err)
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// StoreEvent appends one classified event to the log.
func (c *SQLiteClient) StoreEvent(event *models.EventRecord) error {
	var sound, capturePath *string
	if event.Sound != "" {
		sound = &event.Sound
	}
	if event.CapturePath != "" {
		capturePath = &event.CapturePath
	}

	result, err := c.db.Exec(`
		INSERT INTO events (timestamp, kind, duration, sound, confidence, capture_path)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.Timestamp,
		event.Kind,
		event.Duration,
		sound,
		event.Confidence,
		capturePath,
	)
	if err != nil {
		return fmt.Errorf("error storing event: %s", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

// RecentEvents returns the newest events first. limit <= 0 returns all.
func (c *SQLiteClient) RecentEvents(limit int) ([]models.EventRecord, error) {
	query := `
		SELECT id, timestamp, kind, duration, sound, confidence, capture_path
		FROM events
		ORDER BY timestamp DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %s", err)
	}
	defer rows.Close()

	var events []models.EventRecord
	for rows.Next() {
		var e models.EventRecord
		var sound, capturePath *string

		err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.Duration, &sound, &e.Confidence, &capturePath)
		if err != nil {
			return nil, fmt.Errorf("error scanning event: %s", err)
		}
		if sound != nil {
			e.Sound = *sound
		}
		if capturePath != nil {
			e.CapturePath = *capturePath
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (c *SQLiteClient) TotalEvents() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting events: %s", err)
	}
	return count, nil
}
