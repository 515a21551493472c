package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"rawcull/internal/config"
	"rawcull/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
library:
  default: "/home/test/photos"
  extensions: ["raf", "nef"]
  natural_sort: true
  watch: true
preview:
  thumb_size: 200
  workers: 8
ratings:
  persist: true
  database: "/tmp/ratings.db"
export:
  directory: "/home/test/export"
  quality: 90
  min_rating: 3
  collision: "skip"
view:
  start_mode: "single"
log:
  debug: true
`
	invalidSyntaxYAML = `
library:
  extensions: ["raf"
preview: [
`
	invalidCollisionYAML = `
export:
  collision: "delete"
`
	invalidQualityYAML = `
export:
  quality: 150
`
	invalidModeYAML = `
view:
  start_mode: "carousel"
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "/home/test/photos", cfg.Library.Default)
		assert.Equal(t, []string{"raf", "nef"}, cfg.Library.Extensions)
		assert.True(t, cfg.Library.NaturalSort)
		assert.True(t, cfg.Library.Watch)
		assert.Equal(t, 200, cfg.Preview.ThumbSize)
		assert.Equal(t, 8, cfg.Preview.Workers)
		// Unset values keep their defaults
		assert.Equal(t, 256, cfg.Preview.ThumbCache)
		assert.True(t, cfg.Ratings.Persist)
		assert.Equal(t, "/tmp/ratings.db", cfg.Ratings.Database)
		assert.Equal(t, 90, cfg.Export.Quality)
		assert.Equal(t, 3, cfg.Export.MinRating)
		assert.Equal(t, "skip", cfg.Export.Collision)
		assert.Equal(t, types.ViewSingle, cfg.StartMode())
		assert.True(t, cfg.Log.Debug)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.New(), cfg)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		for name, content := range map[string]string{
			"collision": invalidCollisionYAML,
			"quality":   invalidQualityYAML,
			"mode":      invalidModeYAML,
		} {
			_, err := config.LoadConfigFile(createTestYAML(t, content))
			require.Error(t, err, name)
			assert.Contains(t, err.Error(), "invalid configuration", name)
		}
	})
}

func TestDefaults(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 95, cfg.Export.Quality)
	assert.Equal(t, 1, cfg.Export.MinRating)
	assert.Equal(t, "rename", cfg.Export.Collision)
	assert.Equal(t, 4, cfg.Preview.Workers)
	assert.Equal(t, types.ViewGrid, cfg.StartMode())
	assert.Contains(t, cfg.Library.Extensions, "raf")
	assert.False(t, cfg.Ratings.Persist)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"no extensions":      func(c *config.Config) { c.Library.Extensions = nil },
		"glob in extension":  func(c *config.Config) { c.Library.Extensions = []string{"*.raf"} },
		"tiny thumbnails":    func(c *config.Config) { c.Preview.ThumbSize = 4 },
		"display < thumb":    func(c *config.Config) { c.Preview.DisplaySize = 100; c.Preview.ThumbSize = 200 },
		"zero workers":       func(c *config.Config) { c.Preview.Workers = 0 },
		"persist without db": func(c *config.Config) { c.Ratings.Persist = true; c.Ratings.Database = "" },
		"min rating":         func(c *config.Config) { c.Export.MinRating = 6 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.New()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.New()
	cfg.Export.Directory = "/out"
	cfg.Export.Quality = 80
	cfg.Library.NaturalSort = true

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/out", loaded.Export.Directory)
	assert.Equal(t, 80, loaded.Export.Quality)
	assert.True(t, loaded.Library.NaturalSort)
}
