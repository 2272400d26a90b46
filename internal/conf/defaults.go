// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SlopeWatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/slopewatch.log")
	viper.SetDefault("main.log.level", "info")

	viper.SetDefault("server.url", "http://localhost:8000")
	viper.SetDefault("server.timeout", 30*time.Second)

	viper.SetDefault("browser.limit", 100)

	viper.SetDefault("mqtt.broker", "")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.connecttimeout", 30*time.Second)
}
