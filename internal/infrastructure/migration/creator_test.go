package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- test"), 0o644))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add tier prices", "add_tier_prices"},
		{"Add-Tier-Prices", "add_tier_prices"},
		{"discount__usage", "discount_usage"},
		{"   spaces   ", "spaces"},
		{"currencies v2!", "currencies_v2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("numbers after the latest version", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "000001_catalog.up.sql", "000001_catalog.down.sql", "000004_tags.up.sql")

		f, err := CreateMigration(dir, "add store mappings", "Limit products to stores")
		require.NoError(t, err)

		assert.Equal(t, "000005", f.Version)
		assert.Equal(t, filepath.Join(dir, "000005_add_store_mappings.up.sql"), f.UpPath)

		up, err := os.ReadFile(f.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- add store mappings")
		assert.Contains(t, string(up), "Limit products to stores")

		down, err := os.ReadFile(f.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "(rollback)")
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		f, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", f.Version)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("sorted up migrations only", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000002_discounts.up.sql", "000002_discounts.down.sql",
			"000001_catalog.up.sql", "000001_catalog.down.sql",
			"README.md", ".gitkeep",
		)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_catalog", "000002_discounts"}, names)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}
