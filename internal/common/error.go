// Package common defines shared sentinel errors used across the media
// engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Blob store and catalog failure taxonomy.
	ErrorIO            = errors.New("i/o error")
	ErrorValidation    = errors.New("validation error")
	ErrorDataIntegrity = errors.New("data integrity error")

	// Batch flow-control errors.
	ErrorSyncInProgress  = errors.New("sync already in progress")
	ErrorNothingToBackup = errors.New("no media items to backup")

	// Upload validation errors.
	ErrorDuplicateFile       = errors.New("duplicate file")
	ErrorUnsupportedFileType = errors.New("unsupported file type")
	ErrorFileTooLarge        = errors.New("file too large")
)
