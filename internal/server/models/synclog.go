package models

import "time"

// SyncOperation classifies what a sync-log entry recorded.
type SyncOperation string

const (
	OperationBackup  SyncOperation = "backup"
	OperationRestore SyncOperation = "restore"
	OperationSync    SyncOperation = "sync"
)

// SyncStatus is the outcome of a recorded operation attempt.
type SyncStatus string

const (
	StatusSuccess SyncStatus = "success"
	StatusFailed  SyncStatus = "failed"
	StatusSkipped SyncStatus = "skipped"
)

// SyncLogEntry is one immutable audit record of a backup/restore/sync
// attempt. Entries deliberately carry no reference to a live MediaAsset so
// the trail survives asset deletion.
type SyncLogEntry struct {
	ID           string
	FileName     string
	FileType     string
	FileSize     int64
	Operation    SyncOperation
	Status       SyncStatus
	Message      string
	ErrorDetails string
	Environment  string
	Timestamp    time.Time
}
