package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

type memFS struct {
	files map[string]bool
	env   map[string]string
}

func (m *memFS) Exists(path string) bool { return m.files[path] }

func (m *memFS) LoadEnv(path string) error {
	for k, v := range m.env {
		os.Setenv(k, v)
	}
	return nil
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development with debug", func(t *testing.T) {
		cfg := ServiceConfig{Name: "streamwatch"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("got env=%q debug=%v", cfg.Environment, cfg.Debug)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "streamwatch" {
			t.Errorf("expected logging service name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug off", func(t *testing.T) {
		cfg := ServiceConfig{Name: "streamwatch", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug || cfg.Logging.Level != "info" {
			t.Errorf("got debug=%v level=%q", cfg.Debug, cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

type fileConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Channel       struct {
		MaxRetries     int           `mapstructure:"max_retries"`
		ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	} `mapstructure:"channel"`
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
name: streamwatch
environment: staging
channel:
  max_retries: 5
  reconnect_delay: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg fileConfig
	if err := Load("streamwatch", &cfg, WithConfigFile(path), WithEnvPrefix("skt_test_none")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "streamwatch" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Channel.MaxRetries != 5 || cfg.Channel.ReconnectDelay != 250*time.Millisecond {
		t.Errorf("unexpected channel config: %+v", cfg.Channel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("channel:\n  max_retries: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKTTEST_CHANNEL_MAX_RETRIES", "7")

	var cfg fileConfig
	if err := Load("streamwatch", &cfg, WithConfigFile(path), WithEnvPrefix("skttest")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Channel.MaxRetries != 7 {
		t.Errorf("expected env override 7, got %d", cfg.Channel.MaxRetries)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("SKTENV_NAME", "")
	fs := &memFS{
		files: map[string]bool{".env": true},
		env:   map[string]string{"SKTENV_NAME": "from-env-file"},
	}

	var cfg fileConfig
	if err := Load("streamwatch", &cfg, WithFileSystem(fs), WithEnvPrefix("SKTENV_")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env-file" {
		t.Errorf("expected name from env file, got %q", cfg.Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg fileConfig
	if err := Load("streamwatch", &cfg, WithConfigFile("/nonexistent/config.yml"), WithEnvPrefix("skt_test_none")); err != nil {
		t.Fatalf("missing file should not fail, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("channel: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	var cfg fileConfig
	if err := Load("streamwatch", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]bool
		opts  Options
		want  Files
	}{
		{
			name:  "cmd directory",
			files: map[string]bool{"./cmd/streamwatch/config.yml": true, "./cmd/streamwatch/.env": true},
			want:  Files{ConfigFile: "./cmd/streamwatch/config.yml", EnvFile: "./cmd/streamwatch/.env"},
		},
		{
			name:  "root fallback",
			files: map[string]bool{"./config.yml": true, ".env": true},
			want:  Files{ConfigFile: "./config.yml", EnvFile: ".env"},
		},
		{
			name:  "explicit paths win",
			files: map[string]bool{"./config.yml": true},
			opts:  Options{ConfigFile: "/etc/sw.yml", EnvFile: "/etc/sw.env"},
			want:  Files{ConfigFile: "/etc/sw.yml", EnvFile: "/etc/sw.env"},
		},
		{name: "nothing found", files: map[string]bool{}, want: Files{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.FileSystem = &memFS{files: tc.files}
			if got := Resolve("streamwatch", tc.opts); got != tc.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestKeyVariants(t *testing.T) {
	got := keyVariants("TRANSPORT_AUTH_TOKEN")
	want := []string{"transport_auth_token", "transport.auth_token", "transport.auth.token"}
	if !slices.Equal(got, want) {
		t.Errorf("keyVariants() = %v, want %v", got, want)
	}
	if got := keyVariants("NAME"); !slices.Equal(got, []string{"name"}) {
		t.Errorf("keyVariants(NAME) = %v", got)
	}
}
