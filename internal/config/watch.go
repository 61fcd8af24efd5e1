package config

import (
	"fmt"
	"strings"

	"tradewire/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchLogLevel re-reads app.log_level whenever the config file changes and
// applies it live. Only the log level is hot-reloadable; everything else
// requires a restart.
func WatchLogLevel(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("watch config failed (%s): %w", path, err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		level := strings.TrimSpace(v.GetString("app.log_level"))
		if level == "" {
			return
		}
		logger.SetLevel(level)
		logger.Infof("config changed (%s), log level now %q", evt.Name, level)
	})
	v.WatchConfig()
	return nil
}
