package config

import (
	"encoding/json"
	"os"

	"github.com/artfolio/mediakeeper/internal/flagx"
	"github.com/artfolio/mediakeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for the retention field, which
// allows parsing both string values such as "720h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	DatabaseDSN         string         `json:"database_dsn"`
	AssetRoot           string         `json:"asset_root"`
	Environment         string         `json:"environment"`
	StorageBackend      string         `json:"storage_backend"`
	AutoBackupThreshold int64          `json:"auto_backup_threshold"`
	SyncLogRetention    timex.Duration `json:"sync_log_retention"`
	MaxUploadSize       int64          `json:"max_upload_size"`
	ThumbnailMaxSize    int            `json:"thumbnail_max_size"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics. The caller merges these values
// with defaults and command-line flags as part of the full configuration
// process.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.AssetRoot = c.AssetRoot
	config.Environment = c.Environment
	config.StorageBackend = c.StorageBackend
	config.AutoBackupThreshold = c.AutoBackupThreshold
	config.SyncLogRetention = c.SyncLogRetention.Duration
	config.MaxUploadSize = c.MaxUploadSize
	config.ThumbnailMaxSize = c.ThumbnailMaxSize
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
