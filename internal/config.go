package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/zrl37/crystallize/internal/history"
	"github.com/zrl37/crystallize/internal/index"
	"github.com/zrl37/crystallize/internal/provider"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Auth     AuthConfig        `yaml:"auth"`
	Index    IndexConfig       `yaml:"index"`
	Provider ProviderConfig    `yaml:"provider"`
	Chat     ChatConfig        `yaml:"chat"`
	Notebook NotebookConfig    `yaml:"notebook"`
	Presets  PresetsConfig     `yaml:"presets"`
	Export   ExportConfig      `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Auth, &c.Index, &c.Provider, &c.Chat, &c.Notebook, &c.Presets, &c.Export,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
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
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// IndexConfig locates the SQLite search index. An empty DSN or ":memory:"
// keeps it in memory; it is rebuilt from the notes at startup either way.
type IndexConfig struct {
	DSN            string        `yaml:"dsn"`
	Debounce       time.Duration `yaml:"debounce"`
	SearchThrottle time.Duration `yaml:"search_throttle"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.SearchThrottle, validation.Min(time.Duration(0))),
	)
}

// ProviderConfig selects the generative backend.
type ProviderConfig struct {
	provider.Config `yaml:",inline"`
}

// Validate requires an API key for the remote backends.
func (c *ProviderConfig) Validate() error {
	remote := c.Kind == provider.KindGemini || c.Kind == provider.KindOpenAI
	return validation.ValidateStruct(&c.Config,
		validation.Field(&c.Config.Kind, validation.In(provider.KindGemini, provider.KindOpenAI, provider.KindMock)),
		validation.Field(&c.Config.APIKey, validation.When(remote, validation.Required)),
		validation.Field(&c.Config.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
	)
}

// ChatConfig tunes the multi-persona chat.
type ChatConfig struct {
	// HistoryLimit bounds how many prior messages go to the provider.
	HistoryLimit int `yaml:"history_limit"`
}

// Validate validates the chat configuration.
func (c *ChatConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistoryLimit, validation.Required, validation.Min(1)),
	)
}

// NotebookConfig tunes the editing session.
type NotebookConfig struct {
	// HistoryLimit caps the undo log of the open note.
	HistoryLimit int `yaml:"history_limit"`
}

// Validate validates the notebook configuration.
func (c *NotebookConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HistoryLimit, validation.Required, validation.Min(2)),
	)
}

// PresetsConfig points at an optional YAML file of personas, quick phrases
// and notebook commands.
type PresetsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate requires a path when watching.
func (c *PresetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Watch, validation.Required)),
	)
}

// ExportConfig holds the directory note exports are written to.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
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
		Index: IndexConfig{
			DSN:            index.MemoryDSN,
			Debounce:       index.DefaultDebounce,
			SearchThrottle: 2 * time.Second,
		},
		Provider: ProviderConfig{
			Config: provider.Config{Kind: provider.KindMock},
		},
		Chat: ChatConfig{
			HistoryLimit: 30,
		},
		Notebook: NotebookConfig{
			HistoryLimit: history.DefaultLimit,
		},
		Export: ExportConfig{
			Dir: "./exports",
		},
	}
}
