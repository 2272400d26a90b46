// Package conf loads and validates the console configuration.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/slopewatch/slopewatch-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig holds settings for a rotated log file
type LogConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	Level   string `yaml:"level" mapstructure:"level"`
}

// ServerSettings describes how to reach the monitoring backend
type ServerSettings struct {
	URL     string        `yaml:"url" mapstructure:"url"`         // backend origin, e.g. https://monitor.example.com
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // per-request timeout
}

// BrowserSettings configures the database record browser
type BrowserSettings struct {
	Limit int `yaml:"limit" mapstructure:"limit"` // default maximum rows shown
}

// MQTTSettings configures the optional direct topic probe.
// The backend owns the production broker connection; these settings only
// serve the operator-side `stations probe-topic` diagnostic.
type MQTTSettings struct {
	Broker         string        `yaml:"broker" mapstructure:"broker"`
	Username       string        `yaml:"username" mapstructure:"username"`
	Password       string        `yaml:"password" mapstructure:"password"`
	ConnectTimeout time.Duration `yaml:"connecttimeout" mapstructure:"connecttimeout"`
}

// MainSettings holds application-wide settings
type MainSettings struct {
	Name string    `yaml:"name" mapstructure:"name"`
	Log  LogConfig `yaml:"log" mapstructure:"log"`
}

// Settings is the root configuration struct
type Settings struct {
	Debug   bool            `yaml:"debug" mapstructure:"debug"`
	Main    MainSettings    `yaml:"main" mapstructure:"main"`
	Server  ServerSettings  `yaml:"server" mapstructure:"server"`
	Browser BrowserSettings `yaml:"browser" mapstructure:"browser"`
	MQTT    MQTTSettings    `yaml:"mqtt" mapstructure:"mqtt"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("SLOPEWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults are defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the primary
// config path and reads it back in.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ValidateSettings checks settings that cannot be defaulted sensibly.
func ValidateSettings(settings *Settings) error {
	if settings.Server.URL == "" {
		return errors.Newf("server.url is not configured").
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if !strings.HasPrefix(settings.Server.URL, "http://") && !strings.HasPrefix(settings.Server.URL, "https://") {
		return errors.Newf("server.url must start with http:// or https://: %q", settings.Server.URL).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("url", settings.Server.URL).
			Build()
	}
	if settings.Server.Timeout <= 0 {
		settings.Server.Timeout = 30 * time.Second
	}
	if settings.Browser.Limit <= 0 {
		settings.Browser.Limit = 100
	}
	return nil
}

// GetDefaultConfigPaths returns the OS specific config search paths,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config dir: %w", err)
	}
	return []string{
		filepath.Join(configDir, "slopewatch"),
		".",
	}, nil
}

// TokenFilePath returns the path of the persisted session token.
func TokenFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error resolving user config dir: %w", err)
	}
	return filepath.Join(configDir, "slopewatch", "token"), nil
}
