package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/streamkit/logger"
)

// FileSystem abstracts the file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Options controls where Load looks for configuration.
type Options struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// EnvPrefix restricts environment binding to variables starting with
	// PREFIX_. The prefix is stripped before mapping to config keys.
	EnvPrefix string
}

// Option is a functional option for Load.
type Option func(*Options)

// WithFileSystem sets a custom filesystem.
func WithFileSystem(fs FileSystem) Option {
	return func(o *Options) { o.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// WithEnvPrefix binds only environment variables carrying the prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) { o.EnvPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// Files holds the resolved config and env paths. Either may be empty.
type Files struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns the files Load would read for the service.
func Resolve(service string, o Options) Files {
	if o.FileSystem == nil {
		o.FileSystem = OSFileSystem{}
	}
	files := Files{ConfigFile: o.ConfigFile, EnvFile: o.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(o.FileSystem,
			fmt.Sprintf("./cmd/%s/config.yml", service),
			fmt.Sprintf("./config/%s.yml", service),
			"./config/config.yml",
			"./config.yml",
		)
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(o.FileSystem,
			fmt.Sprintf("./cmd/%s/.env", service),
			fmt.Sprintf(".env.%s", service),
			".env",
		)
	}
	return files
}

func firstExisting(fs FileSystem, paths ...string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// Load reads the service's YAML config, overlays environment variables
// (including those from a .env file) and unmarshals the result into cfg.
// A missing config file is not an error; cfg keeps its zero values.
func Load(service string, cfg any, opts ...Option) error {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.FileSystem == nil {
		o.FileSystem = OSFileSystem{}
	}
	files := Resolve(service, o)
	log := logger.WithComponent("config")

	v := viper.New()
	if files.ConfigFile != "" && o.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", files.ConfigFile, err)
		}
		log.Debug("config file loaded", logger.Fields("path", files.ConfigFile))
	}

	if files.EnvFile != "" && o.FileSystem.Exists(files.EnvFile) {
		if err := o.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.MergeWithError(logger.Fields("path", files.EnvFile), err))
		}
	}
	bindEnv(v, o.EnvPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", service, err)
	}
	return nil
}

// bindEnv maps each environment variable onto every key shape it could
// address, so CHANNEL_MAX_RETRIES reaches both channel.max_retries and
// channel_max_retries.
func bindEnv(v *viper.Viper, prefix string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found {
				continue
			}
			key = rest
		}
		for _, k := range keyVariants(key) {
			v.Set(k, value)
		}
	}
}

// keyVariants returns the flat key plus each split of the name into a
// dotted section and an underscored leaf.
//
//	TRANSPORT_AUTH_TOKEN -> [transport_auth_token, transport.auth_token, transport.auth.token]
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}
	variants := []string{lower}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
