package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "", cfg.LogFile)
	assert.Equal(t, 100, cfg.LogMaxSize)
	assert.Equal(t, 3, cfg.LogMaxBackups)
	assert.Equal(t, time.Second, cfg.OpenTimeout)
}

func TestLoad_FileThenFlags(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	file := filepath.Join(t.TempDir(), "shelf.yaml")
	content := "path:\n  - /tmp/a.shelf\n  - /tmp/b.shelf\nlog_level: debug\nlog_format: json\nopen_timeout: 250ms\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.StringSlice("path", nil, "")
	require.NoError(t, flags.Parse([]string{"--log-level", "WARN"}))

	// --- Act ---
	cfg, err := Load(file, flags)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/a.shelf", "/tmp/b.shelf"}, cfg.Path, "unset flags must not override the file")
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.OpenTimeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SHELF_LOG_FORMAT", "json")
	t.Setenv("SHELF_LOG_MAX_BACKUPS", "7")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 7, cfg.LogMaxBackups)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{LogLevel: "info", LogFormat: "text"}},
		{name: "bad level", cfg: Config{LogLevel: "loud", LogFormat: "text"}, wantErr: "invalid log_level"},
		{name: "bad format", cfg: Config{LogLevel: "info", LogFormat: "xml"}, wantErr: "invalid log_format"},
		{name: "negative timeout", cfg: Config{LogLevel: "info", LogFormat: "text", OpenTimeout: -1}, wantErr: "open_timeout"},
		{name: "empty path entry", cfg: Config{LogLevel: "info", LogFormat: "text", Path: []string{" "}}, wantErr: "path entries"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
