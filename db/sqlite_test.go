package db

import (
	"path/filepath"
	"testing"
	"time"

	"audio-sentry/models"
)

func openTestClient(t *testing.T) *SQLiteClient {
	t.Helper()
	client, err := NewSQLiteClient(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("NewSQLiteClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStoreAndRecentEvents(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	records := []models.EventRecord{
		{Timestamp: base, Kind: "notification", Duration: 0.4, Sound: "doorbell", Confidence: 0.91},
		{Timestamp: base.Add(time.Minute), Kind: "call_start", Duration: 3.0, Confidence: 0.2},
		{Timestamp: base.Add(2 * time.Minute), Kind: "call_end", Duration: 12.5, Sound: "ringtone", Confidence: 0.7},
	}
	for i := range records {
		if err := client.StoreEvent(&records[i]); err != nil {
			t.Fatalf("StoreEvent failed: %v", err)
		}
		if records[i].ID == 0 {
			t.Error("StoreEvent should backfill the row ID")
		}
	}

	events, err := client.RecentEvents(0)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Newest first.
	if events[0].Kind != "call_end" || events[2].Kind != "notification" {
		t.Errorf("events out of order: %s .. %s", events[0].Kind, events[2].Kind)
	}
	if events[2].Sound != "doorbell" || events[2].Confidence != 0.91 {
		t.Errorf("event fields did not survive: %+v", events[2])
	}
	// Empty sound stays empty, not "NULL".
	if events[1].Sound != "" {
		t.Errorf("unmatched event sound = %q, want empty", events[1].Sound)
	}

	total, err := client.TotalEvents()
	if err != nil {
		t.Fatalf("TotalEvents failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}

func TestRecentEventsLimit(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record := models.EventRecord{Timestamp: base.Add(time.Duration(i) * time.Second), Kind: "notification"}
		if err := client.StoreEvent(&record); err != nil {
			t.Fatalf("StoreEvent failed: %v", err)
		}
	}

	events, err := client.RecentEvents(2)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestRecentEventsEmpty(t *testing.T) {
	t.Parallel()

	client := openTestClient(t)
	events, err := client.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from an empty log", len(events))
	}
}
