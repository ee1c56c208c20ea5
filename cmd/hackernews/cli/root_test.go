package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
	})

	t.Run("empty path is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(""))
	})

	t.Run("variables are loaded without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("HN_CLI_TEST_A=file\nHN_CLI_TEST_B=file\n"), 0o600))
		t.Setenv("HN_CLI_TEST_B", "env")
		t.Cleanup(func() { os.Unsetenv("HN_CLI_TEST_A") })

		require.NoError(t, loadEnvFile(path))
		assert.Equal(t, "file", os.Getenv("HN_CLI_TEST_A"))
		assert.Equal(t, "env", os.Getenv("HN_CLI_TEST_B"))
	})
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		name    string
		level   string
		verbose bool
		want    zerolog.Level
	}{
		{"configured level", "warn", false, zerolog.WarnLevel},
		{"empty falls back to info", "", false, zerolog.InfoLevel},
		{"garbage falls back to info", "loud", false, zerolog.InfoLevel},
		{"verbose wins", "error", true, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verbose = tt.verbose
			defer func() { verbose = false }()

			setupLogging("test", tt.level)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}
