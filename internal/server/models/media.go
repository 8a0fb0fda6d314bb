// Package models defines the data model persisted in the database: the media
// catalog, the sync audit log, and point-in-time snapshot backups.
package models

import "time"

// MediaAsset is a catalog entry describing one managed media file. The
// catalog is the source of truth for what media should exist; the filesystem
// copy is reconstructible from the embedded binary fields.
type MediaAsset struct {
	ID string

	// FileName is the unique stored filesystem name; OriginalName is the
	// name supplied by the uploader.
	FileName     string
	OriginalName string
	FileType     string
	FileSize     int64

	// FilePath and ThumbnailPath are logical paths relative to the public
	// asset root (e.g. "/uploads/169...-cat.jpg"). ThumbnailPath is empty
	// for assets without a thumbnail.
	FilePath      string
	ThumbnailPath string

	Description string

	// FileData and ThumbnailData are the embedded binary copies; nil means
	// absent (never backed up), as opposed to a zero-length payload which
	// is rejected at backup time.
	FileData      []byte
	ThumbnailData []byte

	// HasFileData and HasThumbnailData report payload presence on rows
	// scanned without the binary columns.
	HasFileData      bool
	HasThumbnailData bool

	// IsStoredInDB becomes true once FileData has been populated at least
	// once. LastSynced is the time of the most recent successful embed or
	// restore, nil until the first sync.
	IsStoredInDB bool
	LastSynced   *time.Time

	UploadDate time.Time
}

// MediaBinary carries the embedded payloads of one asset, fetched separately
// from the metadata so that catalog scans stay cheap.
type MediaBinary struct {
	FileData      []byte
	ThumbnailData []byte
}
