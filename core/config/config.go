// Package config loads fireai settings from an optional YAML file, a .env
// file and the process environment. Environment variables win over the file.
//
// Example config.yaml:
//
//	api_key: AIza...
//	project_id: my-project
//	backend: vertexai
//	location: europe-west1
//	model: gemini-2.5-flash
//	timeout: 90s
//	retry:
//	  max_retries: 3
//	  initial_backoff: 1s
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/fireai/providers/ai"
)

// Environment variables read by Load.
const (
	EnvAPIKey    = "FIREBASE_API_KEY"
	EnvProjectID = "FIREBASE_PROJECT_ID"
	EnvAppID     = "FIREBASE_APP_ID"
	EnvLocation  = "FIREAI_LOCATION"
	EnvBackend   = "FIREAI_BACKEND"
	EnvBaseURL   = "FIREAI_BASE_URL"
	EnvTimeout   = "FIREAI_TIMEOUT"
	EnvModel     = "FIREAI_MODEL"

	EnvLiveBaseURL             = "FIREAI_LIVE_BASE_URL"
	EnvAutomaticDataCollection = "FIREAI_AUTOMATIC_DATA_COLLECTION"
	EnvMaxRetries              = "FIREAI_MAX_RETRIES"
)

// DefaultModel is used when neither the file nor the environment names one.
const DefaultModel = "gemini-2.5-flash"

// Config is the file and environment view of a fireai client.
type Config struct {
	APIKey    string `yaml:"api_key"`
	ProjectID string `yaml:"project_id"`
	AppID     string `yaml:"app_id"`
	Location  string `yaml:"location"`
	Backend   string `yaml:"backend"`

	// BaseURL replaces the REST origin; LiveBaseURL the WebSocket origin.
	BaseURL     string `yaml:"base_url"`
	LiveBaseURL string `yaml:"live_base_url"`

	Timeout time.Duration `yaml:"timeout"`
	Model   string        `yaml:"model"`

	AutomaticDataCollection  bool `yaml:"automatic_data_collection"`
	LimitedUseAppCheckTokens bool `yaml:"limited_use_app_check_tokens"`

	Retry struct {
		MaxRetries     int           `yaml:"max_retries"`
		InitialBackoff time.Duration `yaml:"initial_backoff"`
		MaxBackoff     time.Duration `yaml:"max_backoff"`
	} `yaml:"retry"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads path (skipped when empty), applies environment overrides and
// defaults, and validates the result. A missing file at a non-empty path is
// an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		// #nosec G304 -- path comes from a trusted flag.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none) into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Settings returns the ai.Settings described by the config. It is not
// validated; client.New does that.
func (c *Config) Settings() ai.Settings {
	return ai.Settings{
		APIKey:                         c.APIKey,
		ProjectID:                      c.ProjectID,
		AppID:                          c.AppID,
		Location:                       c.Location,
		Backend:                        ai.Backend(c.Backend),
		AutomaticDataCollectionEnabled: c.AutomaticDataCollection,
		UseLimitedUseAppCheckTokens:    c.LimitedUseAppCheckTokens,
	}
}

// RequestOptions returns the per-request options described by the config.
func (c *Config) RequestOptions() ai.RequestOptions {
	return ai.RequestOptions{Timeout: c.Timeout, BaseURL: c.BaseURL}
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.APIKey, EnvAPIKey)
	setString(&cfg.ProjectID, EnvProjectID)
	setString(&cfg.AppID, EnvAppID)
	setString(&cfg.Location, EnvLocation)
	setString(&cfg.Backend, EnvBackend)
	setString(&cfg.BaseURL, EnvBaseURL)
	setString(&cfg.LiveBaseURL, EnvLiveBaseURL)
	setString(&cfg.Model, EnvModel)

	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = timeout
	}
	if v := strings.TrimSpace(os.Getenv(EnvAutomaticDataCollection)); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAutomaticDataCollection, err)
		}
		cfg.AutomaticDataCollection = enabled
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxRetries)); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRetries, err)
		}
		cfg.Retry.MaxRetries = retries
	}
	return nil
}

func setString(field *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*field = v
	}
}

func applyDefaults(cfg *Config) {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = string(ai.BackendVertexAI)
	}
	if cfg.Backend == string(ai.BackendVertexAI) && cfg.Location == "" {
		cfg.Location = ai.DefaultLocation
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
}

func validate(cfg *Config) error {
	if cfg.Backend != string(ai.BackendVertexAI) && cfg.Backend != string(ai.BackendGoogleAI) {
		return fmt.Errorf("backend must be %q or %q, got %q", ai.BackendVertexAI, ai.BackendGoogleAI, cfg.Backend)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	return nil
}
