package models

import "time"

// SnapshotBackup is a point-in-time export of the catalog's descriptors,
// excluding binary payloads. Restoring a snapshot replaces the live catalog
// wholesale.
type SnapshotBackup struct {
	ID         string
	BackupDate time.Time

	Items []SnapshotItem

	// ItemCount is populated on listings where Items are not loaded.
	ItemCount int
}

// SnapshotItem is one asset descriptor captured in a snapshot.
type SnapshotItem struct {
	ID              string
	SnapshotID      string
	OriginalMediaID string
	FileName        string
	OriginalName    string
	FileType        string
	FileSize        int64
	FilePath        string
	ThumbnailPath   string
	Description     string
}
