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

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Docs     DocsConfig        `yaml:"docs"`
	OpenAI   OpenAIConfig      `yaml:"openai"`
	Unsplash UnsplashConfig    `yaml:"unsplash"`
	Pipeline PipelineConfig    `yaml:"pipeline"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Docs.Validate(); err != nil {
		return err
	}
	if err := c.OpenAI.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// StoreConfig holds the SQLite project-store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// DocsConfig describes the guideline documents directory.
type DocsConfig struct {
	Path       string   `yaml:"path"`
	Guidelines []string `yaml:"guidelines"`
	Watch      bool     `yaml:"watch"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Guidelines, validation.Required),
	)
}

// ProfileConfig is one named generation budget.
type ProfileConfig struct {
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the per-call deadline.
func (c ProfileConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the profile.
func (c ProfileConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Required, validation.Min(1)),
	)
}

// OpenAIConfig wires the generative-text provider.
type OpenAIConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Planner  ProfileConfig `yaml:"planner"`
	Research ProfileConfig `yaml:"research"`
	Writer   ProfileConfig `yaml:"writer"`
}

// Validate validates the provider configuration.
func (c *OpenAIConfig) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("openai planner: %w", err)
	}
	if err := c.Research.Validate(); err != nil {
		return fmt.Errorf("openai research: %w", err)
	}
	if err := c.Writer.Validate(); err != nil {
		return fmt.Errorf("openai writer: %w", err)
	}
	return nil
}

// UnsplashConfig wires the image-search provider.
type UnsplashConfig struct {
	AccessKey string `yaml:"access_key"`
	BaseURL   string `yaml:"base_url"`
	PerPage   int    `yaml:"per_page"`
}

// PipelineConfig holds workflow-level settings.
type PipelineConfig struct {
	DefaultLanguage   string `yaml:"default_language"`
	ResearchEnabled   bool   `yaml:"research_enabled"`
	ImageDelaySeconds int    `yaml:"image_delay_seconds"`
}

// ImageDelay returns the pause between image-search lookups.
func (c PipelineConfig) ImageDelay() time.Duration {
	return time.Duration(c.ImageDelaySeconds) * time.Second
}

// Validate validates the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLanguage, validation.Required),
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./ansuz.db",
		},
		Docs: DocsConfig{
			Path: "./docs",
			Guidelines: []string{
				"google_helpful_content.md",
				"outline_checklist.md",
				"seo_best_practices.md",
			},
			Watch: true,
		},
		OpenAI: OpenAIConfig{
			Planner: ProfileConfig{
				Model:          "gpt-4.1-mini",
				Temperature:    1.0,
				MaxTokens:      10000,
				TimeoutSeconds: 120,
			},
			Research: ProfileConfig{
				Model:          "gpt-4.1-mini",
				Temperature:    0.8,
				MaxTokens:      10000,
				TimeoutSeconds: 120,
			},
			Writer: ProfileConfig{
				Model:          "gpt-4.1-mini",
				Temperature:    1.0,
				MaxTokens:      16000,
				TimeoutSeconds: 300,
			},
		},
		Unsplash: UnsplashConfig{
			PerPage: 3,
		},
		Pipeline: PipelineConfig{
			DefaultLanguage:   "English",
			ResearchEnabled:   true,
			ImageDelaySeconds: 1,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
