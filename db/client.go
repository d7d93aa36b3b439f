package db

import (
	"path/filepath"
	"strings"

	"audio-sentry/models"
	"audio-sentry/utils"
)

// EventStore persists the log of classified sound events.
type EventStore interface {
	Close() error
	StoreEvent(event *models.EventRecord) error
	RecentEvents(limit int) ([]models.EventRecord, error)
	TotalEvents() (int, error)
}

// NewEventStore selects a backend from the EVENT_DB_URI environment
// variable: mongodb:// URIs get the MongoDB client, anything else is
// treated as a SQLite file path. Defaults to a SQLite file under the
// user data directory.
func NewEventStore() (EventStore, error) {
	uri := utils.GetEnv("EVENT_DB_URI", filepath.Join(utils.DefaultDataDir(), "events.db"))
	if strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://") {
		return NewMongoClient(uri)
	}
	return NewSQLiteClient(uri)
}
