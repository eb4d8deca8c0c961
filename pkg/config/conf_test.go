package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	dir := t.TempDir()

	c1, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, DefaultLogLevel, c1.LogLevel)
	assert.Equal(t, DefaultFormat, c1.Format)

	c1.DB = "postgres://localhost/vinecop"
	c1.StrictMatrix = true
	c1.Format = "yaml"

	require.NoError(t, Save(dir, c1))

	c2, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, c1.DB, c2.DB)
	assert.Equal(t, c1.StrictMatrix, c2.StrictMatrix)
	assert.Equal(t, c1.Format, c2.Format)
}

func TestReadOrCreate_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".vinecop")
	_, err := ReadOrCreate(dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestReadOrCreate_Invalid(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("format: [\n"), 0600))
	_, err = ReadOrCreate(dir)
	assert.Error(t, err)
}

func TestSave_Invalid(t *testing.T) {
	assert.Error(t, Save("", &Config{}))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	c.Format = "yaml"
	c.RegistryURL = "https://file.example.com"
	require.NoError(t, Save(dir, c))

	t.Setenv("VINECOP_DB", "/tmp/other.db")
	t.Setenv("VINECOP_STRICT", "true")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", got.DB)
	assert.True(t, got.StrictMatrix)
	assert.Equal(t, "yaml", got.Format)
	assert.Equal(t, "https://file.example.com", got.RegistryURL)
}

func TestApplyEnv_Invalid(t *testing.T) {
	assert.Error(t, ApplyEnv(t.TempDir(), nil))

	t.Setenv("VINECOP_STRICT", "not-a-bool")
	assert.Error(t, ApplyEnv(t.TempDir(), &Config{}))
}

func TestApplyEnv_EnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "VINECOP_FORMAT=yaml\nVINECOP_REGISTRY_URL=https://dotenv.example.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, envFileName), []byte(content), 0600))
	t.Setenv("VINECOP_REGISTRY_URL", "https://process.example.com")

	c := getDefaultConfig()
	require.NoError(t, ApplyEnv(dir, c))
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "https://process.example.com", c.RegistryURL)
	_, set := os.LookupEnv("VINECOP_FORMAT")
	assert.False(t, set)
}

func TestApplyEnv_BadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, envFileName), 0700))
	assert.Error(t, ApplyEnv(dir, getDefaultConfig()))
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, created, err := GetOrCreateHomeDir("vinecop")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ".vinecop", filepath.Base(dir))

	_, created, err = GetOrCreateHomeDir(".vinecop")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}
