package domain

import "time"

// SyncStats holds statistics about one sync cycle.
type SyncStats struct {
	Fetched       int           `json:"fetched"`
	New           int           `json:"new"`
	Updated       int           `json:"updated"`
	Errors        int           `json:"errors"`
	Published     int           `json:"published"`
	FailedSources []string      `json:"failedSources,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Synced is the number of items written by the cycle.
func (s SyncStats) Synced() int {
	return s.New + s.Updated
}

// SourceReport is the adapter's per-source outcome for one cycle.
type SourceReport struct {
	Source FeedSource
	Items  int
	Err    error
}

// UpsertResult summarizes a batch upsert.
type UpsertResult struct {
	New     int
	Updated int
	Items   []UpsertedItem
}

type UpsertedItem struct {
	Item     NewsItem
	Inserted bool
}

// SyncState is the persisted per-source sync status.
type SyncState struct {
	ID            int64     `json:"-" db:"id"`
	Source        string    `json:"source" db:"source"`
	LastSyncedAt  time.Time `json:"lastSyncedAt" db:"last_synced_at"`
	LastItemCount int       `json:"lastItemCount" db:"last_item_count"`
	TotalSynced   int64     `json:"totalSynced" db:"total_synced"`
	LastError     *string   `json:"lastError" db:"last_error"`
}
