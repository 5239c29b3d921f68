package transport

import (
	"fmt"
	"net/http"
)

// AuthType identifies the authentication method.
type AuthType string

const (
	// AuthNone disables authentication.
	AuthNone AuthType = ""
	// AuthBearer uses Bearer token authentication.
	AuthBearer AuthType = "bearer"
	// AuthBasic uses HTTP Basic authentication.
	AuthBasic AuthType = "basic"
	// AuthAPIKey uses an API key in a header or query parameter.
	AuthAPIKey AuthType = "api_key"
	// AuthCustom uses a custom request modifier.
	AuthCustom AuthType = "custom"
)

const defaultAPIKeyName = "X-API-Key"

// AuthConfig configures credentials sent with credentialed connections.
type AuthConfig struct {
	Type     AuthType `yaml:"type" mapstructure:"type"`
	Token    string   `yaml:"token" mapstructure:"token"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	Key      string   `yaml:"key" mapstructure:"key"`
	// In is "header" (default) or "query".
	In string `yaml:"in" mapstructure:"in"`
	// Name is the header or query parameter name. Defaults to "X-API-Key".
	Name string `yaml:"name" mapstructure:"name"`
	// Apply modifies the request (AuthCustom).
	Apply func(*http.Request) `yaml:"-" mapstructure:"-"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent via header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "header", Name: defaultAPIKeyName}
}

// APIKeyAuthQuery creates an API key auth config sent via query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: "query", Name: paramName}
}

// CustomAuth creates a custom auth config with a request modifier function.
func CustomAuth(fn func(*http.Request)) *AuthConfig {
	return &AuthConfig{Type: AuthCustom, Apply: fn}
}

// Validate checks that the fields required by Type are set.
func (a *AuthConfig) Validate() error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case AuthNone:
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("transport/auth: bearer auth requires a token")
		}
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("transport/auth: basic auth requires a username")
		}
	case AuthAPIKey:
		if a.Key == "" {
			return fmt.Errorf("transport/auth: api_key auth requires a key")
		}
		if a.In != "" && a.In != "header" && a.In != "query" {
			return fmt.Errorf("transport/auth: invalid api_key location %q", a.In)
		}
	case AuthCustom:
		if a.Apply == nil {
			return fmt.Errorf("transport/auth: custom auth requires an apply function")
		}
	default:
		return fmt.Errorf("transport/auth: unknown auth type %q", a.Type)
	}
	return nil
}

// apply adds the credentials to req.
func (a *AuthConfig) apply(req *http.Request) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Token)
	case AuthBasic:
		req.SetBasicAuth(a.Username, a.Password)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = defaultAPIKeyName
		}
		if a.In == "query" {
			q := req.URL.Query()
			q.Set(name, a.Key)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(name, a.Key)
		}
	case AuthCustom:
		if a.Apply != nil {
			a.Apply(req)
		}
	}
}
