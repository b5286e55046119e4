package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/models"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("log_level: error\nregistry:\n  driver: file\n  file_path: %s\n", filepath.Join(dir, "kols.json"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("WARN").Enabled(ctx, slog.LevelInfo))
	assert.True(t, newLogger("").Enabled(ctx, slog.LevelInfo))
	assert.False(t, newLogger("error").Enabled(ctx, slog.LevelWarn))
}

func TestOpenRegistry_UnknownDriver(t *testing.T) {
	_, _, err := openRegistry(context.Background(), configs.RegistryConfig{Driver: "mongo"})
	assert.ErrorContains(t, err, "unknown registry driver")
}

func TestNewAnalyzer(t *testing.T) {
	ctx := context.Background()

	analyzer, err := newAnalyzer(ctx, configs.AIConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.Nil(t, analyzer, "no key disables the model tiers")

	analyzer, err = newAnalyzer(ctx, configs.AIConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, analyzer)

	_, err = newAnalyzer(ctx, configs.AIConfig{Provider: "claude", APIKey: "k"})
	assert.Error(t, err)
}

func TestKolCommands(t *testing.T) {
	conf := writeConfig(t)

	out, err := execute(t, "kol", "add", "@alice,bob", " ,carol", "--conf", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "tracking @alice")
	assert.Contains(t, out, "tracking @bob")
	assert.Contains(t, out, "tracking @carol")

	out, err = execute(t, "kol", "list", "--conf", conf)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))

	// 第一列是 id
	id := strings.Fields(lines[1])[0]
	out, err = execute(t, "kol", "delete", id, "missing-id", "--conf", conf)
	assert.ErrorContains(t, err, "not found: missing-id")
	assert.Contains(t, out, "deleted "+id)

	out, err = execute(t, "kol", "list", "--conf", conf)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestRunRequiresCredentials(t *testing.T) {
	conf := writeConfig(t)
	for _, key := range []string{"KOLWATCH_FEED_API_KEY", "TWITTER_API_KEY", "KOLWATCH_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(key, "")
	}

	_, err := execute(t, "run", "--once", "--conf", conf)
	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.ErrorContains(t, err, "feed.api_key")
}
