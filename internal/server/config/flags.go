package config

import (
	"flag"
	"os"
	"time"

	"github.com/artfolio/mediakeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-o string   public asset root directory
//	-e string   environment tag (local/development/production)
//	-s string   storage backend ("local" or "s3")
//	-t int      auto-backup upload threshold
//	-r int      sync-log retention, days
//	-m int      max upload size, MiB
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-n string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Retention is
// accepted as an integer day count and converted to a time.Duration.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-e", "-s", "-t", "-r", "-m", "-u", "-p", "-b", "-g", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AssetRoot, "o", config.AssetRoot, "public asset root directory")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment tag")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (local or s3)")

	fs.Int64Var(&config.AutoBackupThreshold, "t", config.AutoBackupThreshold, "auto-backup upload threshold")
	retentionDays := fs.Int("r", int(config.SyncLogRetention.Hours()/24), "sync log retention (in days)")
	maxUploadMiB := fs.Int64("m", config.MaxUploadSize/(1024*1024), "max upload size (in MiB)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "n", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SyncLogRetention = time.Duration(*retentionDays) * 24 * time.Hour
	config.MaxUploadSize = *maxUploadMiB * 1024 * 1024
}
