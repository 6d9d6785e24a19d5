package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	err := os.WriteFile(path, []byte(`{
		// JSON5 comments should be fine
		base_url: "https://shop.example.com",
		username: "scraper",
	}`), 0600)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", config.BaseUrl)
	require.Equal(t, "scraper", config.Username)
	require.Equal(t, "", config.Password)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		base_url: "https://shop.example.com",
		username: "scraper",
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		password: "hunter2",
	}`), 0600)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", config.BaseUrl)
	require.Equal(t, "hunter2", config.Password)
}

func TestReadRecursivelyWalksUp(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "services", "harvest")
	require.NoError(t, os.MkdirAll(nested, 0755))

	err := os.WriteFile(filepath.Join(dir, "harvest.json5"), []byte(`{
		base_url: "https://shop.example.com",
		username: "scraper",
	}`), 0600)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, os.Chdir(cwd)) })
	require.NoError(t, os.Chdir(nested))

	config, err := ReadRecursively[testConfig]("harvest.json5")
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", config.BaseUrl)
	require.Equal(t, "scraper", config.Username)

	_, err = ReadRecursively[testConfig]("harvest-missing.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "nonexistent.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
