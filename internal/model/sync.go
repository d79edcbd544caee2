package model

import "time"

const (
	SyncDirectionPush = "push"
	SyncDirectionPull = "pull"
)

// SyncStatus describes the last completed exchange with the remote table.
// It is informational only and never consulted by the merge.
type SyncStatus struct {
	LastSync   time.Time `json:"lastSync"`
	Direction  string    `json:"direction"`
	EntryCount int       `json:"entryCount"`
}
