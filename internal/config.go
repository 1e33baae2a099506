package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Library modes.
const (
	LibraryModeLocal    = "local"
	LibraryModeSupabase = "supabase"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Auth      AuthConfig        `yaml:"auth"`
	Providers ProvidersConfig   `yaml:"providers"`
	Library   LibraryConfig     `yaml:"library"`
	Chat      ChatConfig        `yaml:"chat"`
	Drop      DropConfig        `yaml:"drop"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	return c.Chat.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ProviderConfig holds one model provider's credentials. An empty
// APIKey leaves the provider unconfigured; routes needing it fail with
// a configuration error.
type ProviderConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ProvidersConfig holds all model provider credentials.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	Gemini    ProviderConfig `yaml:"gemini"`
}

// LibraryConfig selects and configures the saved-item store backend.
type LibraryConfig struct {
	Mode        string `yaml:"mode"`
	SQLitePath  string `yaml:"sqlite_path"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = LibraryModeLocal
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(LibraryModeLocal, LibraryModeSupabase)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case LibraryModeLocal:
		if c.SQLitePath == "" {
			return fmt.Errorf("library: mode is %q but sqlite_path is empty", LibraryModeLocal)
		}
	case LibraryModeSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("library: mode is %q but supabase_url or supabase_key is empty", LibraryModeSupabase)
		}
	}
	return nil
}

// ChatConfig holds chat session lifecycle configuration.
type ChatConfig struct {
	SessionTTL      time.Duration `yaml:"session_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Validate validates the chat configuration.
func (c *ChatConfig) Validate() error {
	if c.SessionTTL < 0 || c.CleanupInterval < 0 {
		return fmt.Errorf("chat: session_ttl and cleanup_interval must not be negative")
	}
	return nil
}

// DropConfig holds the optional drop-directory importer configuration.
// An empty Path disables the importer and the upload endpoint.
type DropConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Library: LibraryConfig{
			Mode:       LibraryModeLocal,
			SQLitePath: "./sourcelens.db",
		},
		Chat: ChatConfig{
			SessionTTL:      time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Drop: DropConfig{
			Path: "./sources",
		},
	}
}
