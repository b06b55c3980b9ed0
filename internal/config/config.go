// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Riolite55/performance-evaluation/internal/scheduling"
)

// Default values applied by MergeWithDefaults
const (
	DefaultOutputDir   = "reports"
	DefaultConcurrency = 4
	DefaultSMTPHost    = "smtp.gmail.com"
	DefaultSMTPPort    = 587
	DefaultAddr        = ":8080"
)

// SMTPConfig holds mail settings
type SMTPConfig struct {
	Host       string              `json:"host,omitempty" validate:"omitempty,hostname|ip"`
	Port       int                 `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	Username   string              `json:"username,omitempty"`
	Password   string              `json:"password,omitempty"`
	Sender     string              `json:"sender,omitempty" validate:"omitempty,email"`
	AdvisoryCc []string            `json:"advisory_cc,omitempty" validate:"dive,email"`
	UnitCc     map[string][]string `json:"unit_cc,omitempty" validate:"dive,dive,email"` // business-unit substring -> cc
}

// Config is the file-backed configuration. All fields are optional; CLI
// flags and environment variables fill what the file leaves out.
type Config struct {
	Input       string     `json:"input,omitempty"`      // form export (.xlsx, .csv, .json)
	Sheet       string     `json:"sheet,omitempty"`      // xlsx worksheet
	OutputDir   string     `json:"output_dir,omitempty"` // report directory
	Since       string     `json:"since,omitempty"`      // only rows at or after this form timestamp
	Period      string     `json:"period,omitempty"`     // e.g. "Q1 2025", used in mail bodies and prompts
	Layout      string     `json:"layout,omitempty"`     // layout override JSON
	Formats     []string   `json:"formats,omitempty" validate:"dive,oneof=md markdown html json pdf"`
	Strategy    string     `json:"strategy,omitempty" validate:"omitempty,oneof=deterministic llm"`
	Concurrency int        `json:"concurrency,omitempty" validate:"gte=0,lte=64"`
	DatabaseURL string     `json:"database_url,omitempty"`
	APIKey      string     `json:"api_key,omitempty"` // Gemini API key
	Addr        string     `json:"addr,omitempty"`    // HTTP listen address
	Send        bool       `json:"send,omitempty"`    // deliver reports by mail
	Attachment  string     `json:"attachment,omitempty" validate:"omitempty,oneof=pdf html"`
	ChromePath  string     `json:"chrome_path,omitempty"` // browser used to print PDF
	Verbose     bool       `json:"verbose,omitempty"`
	SMTP        SMTPConfig `json:"smtp"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Validate checks field values. Required fields are checked by the
// commands that need them, after flags are merged.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: %s failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Since != "" {
		if _, err := scheduling.ParseTimestamp(c.Since); err != nil {
			return fmt.Errorf("config error: 'since' must look like 26/03/2025 16:46:08: %w", err)
		}
	}
	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}
	if c.Layout != "" {
		if _, err := os.Stat(c.Layout); os.IsNotExist(err) {
			return fmt.Errorf("config error: layout file not found: %s", c.Layout)
		}
	}
	if c.Send && (c.SMTP.Username == "" || c.SMTP.Password == "") {
		return fmt.Errorf("config error: sending mail requires smtp username and password")
	}
	return nil
}

// SinceTime parses Since; an empty value means no cutoff
func (c *Config) SinceTime() (time.Time, error) {
	if c.Since == "" {
		return time.Time{}, nil
	}
	return scheduling.ParseTimestamp(c.Since)
}

// ApplyEnv fills empty secrets and paths from the environment
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(getenv(key))
		}
	}
	fill(&c.Input, "SPREADSHEET_PATH")
	fill(&c.DatabaseURL, "DATABASE_URL")
	fill(&c.APIKey, "GEMINI_API_KEY")
	fill(&c.ChromePath, "CHROME_PATH")
	fill(&c.SMTP.Username, "EMAIL_SENDER")
	fill(&c.SMTP.Password, "EMAIL_PASSWORD")
	fill(&c.SMTP.Sender, "EMAIL_SENDER")
}

// MergeWithDefaults returns a copy with empty fields filled from defaults
// and then from the package defaults. Bools are never merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	pick := func(dst *string, fallbacks ...string) {
		for _, f := range fallbacks {
			if *dst != "" {
				return
			}
			*dst = f
		}
	}
	pick(&result.Input, defaults.Input)
	pick(&result.Sheet, defaults.Sheet)
	pick(&result.OutputDir, defaults.OutputDir, DefaultOutputDir)
	pick(&result.Since, defaults.Since)
	pick(&result.Period, defaults.Period)
	pick(&result.Layout, defaults.Layout)
	pick(&result.Strategy, defaults.Strategy, "deterministic")
	pick(&result.DatabaseURL, defaults.DatabaseURL)
	pick(&result.APIKey, defaults.APIKey)
	pick(&result.Addr, defaults.Addr, DefaultAddr)
	pick(&result.Attachment, defaults.Attachment)
	pick(&result.ChromePath, defaults.ChromePath)
	pick(&result.SMTP.Host, defaults.SMTP.Host, DefaultSMTPHost)
	pick(&result.SMTP.Username, defaults.SMTP.Username)
	pick(&result.SMTP.Password, defaults.SMTP.Password)
	pick(&result.SMTP.Sender, defaults.SMTP.Sender, result.SMTP.Username)

	if len(result.Formats) == 0 {
		result.Formats = defaults.Formats
	}
	if len(result.Formats) == 0 {
		result.Formats = []string{"md", "html"}
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Concurrency == 0 {
		result.Concurrency = DefaultConcurrency
	}
	if result.SMTP.Port == 0 {
		result.SMTP.Port = defaults.SMTP.Port
	}
	if result.SMTP.Port == 0 {
		result.SMTP.Port = DefaultSMTPPort
	}
	if len(result.SMTP.AdvisoryCc) == 0 {
		result.SMTP.AdvisoryCc = defaults.SMTP.AdvisoryCc
	}
	if len(result.SMTP.UnitCc) == 0 {
		result.SMTP.UnitCc = defaults.SMTP.UnitCc
	}
	return result
}
