package domain

import "time"

type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}

// SyncStats holds statistics about a mirror run.
type SyncStats struct {
	SourceID  string
	Fetched   int
	New       int
	Updated   int
	Deleted   int
	Skipped   int
	Errors    int
	Published int
	Duration  time.Duration
}
