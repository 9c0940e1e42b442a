package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ReadConfig reads config.yaml from the working directory (and any extra paths),
// letting environment variables such as STORE_TYPE or ADMIN_PASSWORD override it.
func ReadConfig(paths ...string) (Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Info().Msg("no config file found, continuing with env and defaults")
		} else {
			// Config file was found but another error was produced
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// every key needs a default, otherwise AutomaticEnv never sees it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.session_secret", "")

	v.SetDefault("store.type", "bolt")
	v.SetDefault("store.key_prefix", "portal_")
	v.SetDefault("store.bolt.path", "data/portal.db")
	v.SetDefault("store.sqlite.connection_string", "data/portal.sqlite")
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.credentials_file", "")
	v.SetDefault("store.firestore.collection_id", "portal")

	v.SetDefault("admin.username", "Admin")
	v.SetDefault("admin.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "dev")
}
