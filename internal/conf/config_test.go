package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Browser: BrowserSettings{Limit: 50},
	}
}

func TestValidateSettingsAcceptsGoodConfig(t *testing.T) {
	s := validSettings()
	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, 10*time.Second, s.Server.Timeout)
	assert.Equal(t, 50, s.Browser.Limit)
}

func TestValidateSettingsRequiresServerURL(t *testing.T) {
	s := validSettings()
	s.Server.URL = ""
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsBareHost(t *testing.T) {
	s := validSettings()
	s.Server.URL = "monitor.example.com"
	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsAppliesFallbacks(t *testing.T) {
	s := validSettings()
	s.Server.Timeout = 0
	s.Browser.Limit = -1

	require.NoError(t, ValidateSettings(s))
	assert.Equal(t, 30*time.Second, s.Server.Timeout)
	assert.Equal(t, 100, s.Browser.Limit)
}

func TestDefaultConfigPathsPreferUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "slopewatch")
	assert.Equal(t, ".", paths[1])
}
