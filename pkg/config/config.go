// Package config loads the orchestrator's environment inputs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/crosscheck/pkg/toolchain"
)

// Config holds the application configuration.
type Config struct {
	// HomeDir is the invoking user's home directory. It is read and
	// carried for parity with the original orchestration interface but
	// takes no part in the library path derivation.
	HomeDir   string
	JavaHome  string
	Channel   toolchain.Channel
	ConfigDir string
}

// FileConfig represents the structure of ~/.crosscheck/config.yaml
type FileConfig struct {
	JavaHome string `yaml:"java_home"`
	Channel  string `yaml:"channel"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	configDir := filepath.Join(home, ".crosscheck")
	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	return &Config{
		HomeDir:   home,
		JavaHome:  getEnvOrDefault("JAVA_HOME", fileConfig.JavaHome),
		Channel:   toolchain.Parse(getEnvOrDefault("CROSSCHECK_CHANNEL", fileConfig.Channel)),
		ConfigDir: configDir,
	}, nil
}

// RequireJavaHome returns the Java installation path or an error when it is
// not configured. Planning the test stage cannot proceed without it.
func (c *Config) RequireJavaHome() (string, error) {
	if c.JavaHome == "" {
		return "", fmt.Errorf("JAVA_HOME is not set; it is required to locate the JVM runtime library")
	}
	return c.JavaHome, nil
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}
