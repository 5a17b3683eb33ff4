package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"api-doc-explorer/internal/describe"
	"api-doc-explorer/internal/llm"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where LoadConfig looks when no path is given
const DefaultPath = "config/config.yaml"

// Description source names accepted in descriptions.sources
const (
	SourceEmbedded = "embedded"
	SourceHTTP     = "http"
	SourceDatabase = "database"
	SourceLLM      = "llm"
)

// Config holds the application configuration
type Config struct {
	Spec         SpecConfig         `yaml:"spec"`
	Descriptions DescriptionsConfig `yaml:"descriptions"`
	View         ViewConfig         `yaml:"view"`
	Logging      LoggingConfig      `yaml:"logging"`
	Reporting    ReportingConfig    `yaml:"reporting"`
}

// SpecConfig locates the OpenAPI document
type SpecConfig struct {
	// Source is a URL (probed for well-known document paths) or a file
	Source  string `yaml:"source"`
	Timeout int    `yaml:"timeout" validate:"gte=0"`
}

// DescriptionsConfig selects and configures the description sources.
// Sources are consulted in order; the first description found wins.
type DescriptionsConfig struct {
	Sources  []string          `yaml:"sources" validate:"min=1,dive,oneof=embedded http database llm"`
	HTTP     HTTPConfig        `yaml:"http"`
	Database describe.DBConfig `yaml:"database"`
	LLM      llm.Config        `yaml:"llm"`
}

// HTTPConfig holds the documentation service settings
type HTTPConfig struct {
	BaseURL string     `yaml:"base_url" validate:"omitempty,url"`
	Auth    AuthConfig `yaml:"auth"`
	Timeout int        `yaml:"timeout" validate:"gte=0"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type  string `yaml:"type" validate:"omitempty,oneof=bearer"`
	Token string `yaml:"token"`
}

// ViewConfig holds the disclosure view settings
type ViewConfig struct {
	// ExpandedPaths are location-prefixed pointers such as "body/owner"
	ExpandedPaths   []string    `yaml:"expanded_paths"`
	PrefetchWorkers int         `yaml:"prefetch_workers" validate:"gte=1,lte=64"`
	Retry           RetryConfig `yaml:"retry"`
}

// RetryConfig holds retry configuration for failed description fetches
type RetryConfig struct {
	Attempts int `yaml:"attempts" validate:"gte=1,lte=10"`
	Delay    int `yaml:"delay_ms" validate:"gte=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`
}

// ReportingConfig holds reporting configuration
type ReportingConfig struct {
	Format    []string `yaml:"format" validate:"min=1,dive,oneof=text json"`
	OutputDir string   `yaml:"output_dir"`
}

// HTTPTimeout returns the documentation service timeout
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Descriptions.HTTP.Timeout) * time.Second
}

// RetryDelay returns the pause between fetch attempts
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.View.Retry.Delay) * time.Millisecond
}

// SpecTimeout returns the OpenAPI download timeout
func (c *Config) SpecTimeout() time.Duration {
	return time.Duration(c.Spec.Timeout) * time.Second
}

// Default returns a configuration with every default applied
func Default() *Config {
	var config Config
	config.applyEnv()
	config.applyDefaults()
	return &config
}

// LoadConfig loads the configuration from a YAML file and environment variables
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks struct constraints and the settings each enabled source needs
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if c.Uses(SourceHTTP) && c.Descriptions.HTTP.BaseURL == "" {
		errs = append(errs, errors.New("descriptions.http.base_url is required for the http source"))
	}
	if c.Uses(SourceDatabase) && c.Descriptions.Database.Type == "" {
		errs = append(errs, errors.New("descriptions.database.type is required for the database source"))
	}
	if c.Uses(SourceLLM) {
		if err := c.Descriptions.LLM.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("descriptions.llm: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Uses reports whether the named description source is enabled
func (c *Config) Uses(source string) bool {
	return slices.Contains(c.Descriptions.Sources, source)
}

func (c *Config) applyEnv() {
	// Override secrets from environment variables if set
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		c.Descriptions.HTTP.Auth.Token = token
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Descriptions.LLM.APIKey = key
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Descriptions.Database.Password = password
	}
}

func (c *Config) applyDefaults() {
	if c.Spec.Timeout == 0 {
		c.Spec.Timeout = 30
	}
	if len(c.Descriptions.Sources) == 0 {
		c.Descriptions.Sources = []string{SourceEmbedded}
	}
	if c.Descriptions.HTTP.Timeout == 0 {
		c.Descriptions.HTTP.Timeout = 10
	}
	if c.Descriptions.Database.Table == "" {
		c.Descriptions.Database.Table = describe.DefaultTable
	}

	llmDefaults := llm.NewDefaultConfig()
	if c.Descriptions.LLM.Provider == "" {
		c.Descriptions.LLM.Provider = llmDefaults.Provider
	}
	if c.Descriptions.LLM.Model == "" {
		c.Descriptions.LLM.Model = llmDefaults.Model
	}
	if c.Descriptions.LLM.Temperature == 0 {
		c.Descriptions.LLM.Temperature = llmDefaults.Temperature
	}
	if c.Descriptions.LLM.MaxTokens == 0 {
		c.Descriptions.LLM.MaxTokens = llmDefaults.MaxTokens
	}

	if c.View.PrefetchWorkers == 0 {
		c.View.PrefetchWorkers = 4
	}
	if c.View.Retry.Attempts == 0 {
		c.View.Retry.Attempts = 2
	}
	if c.View.Retry.Delay == 0 {
		c.View.Retry.Delay = 250
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Reporting.Format) == 0 {
		c.Reporting.Format = []string{"text"}
	}
	if c.Reporting.OutputDir == "" {
		c.Reporting.OutputDir = "reports"
	}
}
