package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-d", "db", "-o", "/srv/public", "-e", "production", "-s", "s3",
			"-t", "10", "-r", "7", "-m", "100",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-n", "http://endpoint",
		}, expectPanic: false,
			expected: &Config{
				DatabaseDSN:         "db",
				AssetRoot:           "/srv/public",
				Environment:         "production",
				StorageBackend:      "s3",
				AutoBackupThreshold: 10,
				SyncLogRetention:    7 * 24 * time.Hour,
				MaxUploadSize:       100 * 1024 * 1024,
				S3RootUser:          "user",
				S3RootPassword:      "password",
				S3Bucket:            "bucket",
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
