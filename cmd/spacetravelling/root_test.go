package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baastos/spacetravelling"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)
	cfgFile = ""
	t.Setenv("SPACETRAVELLING_PRISMIC_ENDPOINT", "https://blog.cdn.prismic.io/api/v2")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Spacetravelling", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 1, cfg.ListingPageSize)
	assert.Equal(t, 20, cfg.PathsPageSize)
	assert.Equal(t, spacetravelling.AppendFirst, cfg.AppendMode)
	assert.True(t, cfg.Fallback)
	assert.True(t, cfg.Siblings)
	assert.Zero(t, cfg.Revalidate)
	assert.Equal(t, "baastos/desafio-ignite-adicionando-feature-ao-blog", cfg.Comments.Repo)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	cfgFile = ""
	yaml := "prismic_endpoint: https://file.cdn.prismic.io/api/v2\nappend_mode: page\nrevalidate: 10m\nurl: https://blog.example.com/\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spacetravelling.yaml"), []byte(yaml), 0o644))
	t.Setenv("SPACETRAVELLING_LISTING_PAGE_SIZE", "5")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://file.cdn.prismic.io/api/v2", cfg.PrismicEndpoint)
	assert.Equal(t, spacetravelling.AppendPage, cfg.AppendMode)
	assert.Equal(t, 10*time.Minute, cfg.Revalidate)
	assert.Equal(t, 5, cfg.ListingPageSize)
	assert.Equal(t, "https://blog.example.com", cfg.URL)
}

func TestLoadConfigRejects(t *testing.T) {
	chdirTemp(t)
	cfgFile = ""

	_, err := loadConfig()
	assert.ErrorContains(t, err, "prismic_endpoint is required")

	t.Setenv("SPACETRAVELLING_PRISMIC_ENDPOINT", "https://blog.cdn.prismic.io/api/v2")
	t.Setenv("SPACETRAVELLING_APPEND_MODE", "all")
	_, err = loadConfig()
	assert.ErrorContains(t, err, "unknown append mode")
}
