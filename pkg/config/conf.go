// Package config reads the vinecop settings file and overlays environment
// variables on top of it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	envFileName    = ".env"
	dirMode        = 0700
	fileMode       = 0600

	DefaultLogLevel = "info"
	DefaultFormat   = "json"
)

// Config represents app config object.
type Config struct {
	// DB is a SQLite file path or a postgres:// DSN. Empty means data.db in
	// the config directory.
	DB           string    `yaml:"db,omitempty" env:"VINECOP_DB"`
	LogLevel     string    `yaml:"log_level" env:"VINECOP_LOG_LEVEL"`
	Format       string    `yaml:"format" env:"VINECOP_FORMAT"`
	RegistryURL  string    `yaml:"registry_url,omitempty" env:"VINECOP_REGISTRY_URL"`
	StrictMatrix bool      `yaml:"strict_matrix" env:"VINECOP_STRICT"`
	Updated      time.Time `yaml:"updated"`
}

func getDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Format:   DefaultFormat,
		Updated:  time.Now().UTC(),
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
	}

	path := filepath.Join(dirPath, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := getDefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides the fields whose VINECOP_* variables are set. A .env
// file in dirPath supplies the variables the process environment leaves unset.
func ApplyEnv(dirPath string, c *Config) error {
	if c == nil {
		return errors.New("config required")
	}

	vars, err := readEnvFile(dirPath)
	if err != nil {
		return err
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func readEnvFile(dirPath string) (map[string]string, error) {
	path := filepath.Join(dirPath, envFileName)
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error reading env file %s: %w", path, err)
	}
	slog.Debug("env file loaded", "path", path, "vars", len(vars))
	return vars, nil
}

// Load reads the config file in dirPath and applies the environment.
func Load(dirPath string) (*Config, error) {
	c, err := ReadOrCreate(dirPath)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(dirPath, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
