// Package config loads service configuration with Viper.
//
// Load reads a YAML file found next to the binary's cmd directory (or given
// explicitly), then overlays environment variables, optionally loaded from a
// .env file via godotenv. Nested keys are addressed with underscores:
// STREAMWATCH_CHANNEL_MAX_RETRIES=5 sets channel.max_retries when the loader
// runs with WithEnvPrefix("streamwatch").
//
//	var cfg Config
//	err := config.Load("streamwatch", &cfg, config.WithEnvPrefix("streamwatch"))
package config
