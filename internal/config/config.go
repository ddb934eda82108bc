// Package config loads settings from flags, IRISDASH_* environment
// variables, an optional irisdash.yaml and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/itsmostafa/irisdash/internal/oracle"
	"github.com/itsmostafa/irisdash/internal/sandbox"
)

// EnvPrefix prefixes every environment variable, e.g. IRISDASH_MODEL.
const EnvPrefix = "IRISDASH"

// DefaultAPIKeyFile is read when no key is set in the environment.
const DefaultAPIKeyFile = "gemini_api_key.txt"

// Keys shared by viper, flags and the config file.
const (
	KeyModel         = "model"
	KeyAPIKey        = "api_key"
	KeyAPIKeyFile    = "api_key_file"
	KeyBaseURL       = "base_url"
	KeyEngine        = "engine"
	KeyExecTimeout   = "exec_timeout"
	KeyMaxSteps      = "max_steps"
	KeyOracleTimeout = "oracle_timeout"
	KeyMock          = "mock"
	KeyAddr          = "addr"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyStyle         = "style"
)

// Config is the resolved application configuration.
type Config struct {
	Model         string
	APIKey        string
	APIKeyFile    string
	BaseURL       string
	Engine        string
	ExecTimeout   time.Duration
	MaxSteps      uint64
	OracleTimeout time.Duration
	Mock          bool
	Addr          string
	LogLevel      string
	LogFormat     string
	Style         string
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()

	exec := sandbox.DefaultConfig()
	v.SetDefault(KeyModel, oracle.DefaultModel)
	v.SetDefault(KeyAPIKeyFile, DefaultAPIKeyFile)
	v.SetDefault(KeyEngine, "python")
	v.SetDefault(KeyExecTimeout, exec.Timeout)
	v.SetDefault(KeyMaxSteps, exec.MaxSteps)
	v.SetDefault(KeyOracleTimeout, time.Duration(0))
	v.SetDefault(KeyMock, false)
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyStyle, "auto")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The key also comes from the variable the Gemini SDK documents.
	_ = v.BindEnv(KeyAPIKey, EnvPrefix+"_API_KEY", "GEMINI_API_KEY")

	return v
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ReadFile reads path, or irisdash.yaml from the working directory when
// path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("irisdash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Model:         v.GetString(KeyModel),
		APIKey:        strings.TrimSpace(v.GetString(KeyAPIKey)),
		APIKeyFile:    v.GetString(KeyAPIKeyFile),
		BaseURL:       v.GetString(KeyBaseURL),
		Engine:        strings.ToLower(v.GetString(KeyEngine)),
		ExecTimeout:   v.GetDuration(KeyExecTimeout),
		MaxSteps:      v.GetUint64(KeyMaxSteps),
		OracleTimeout: v.GetDuration(KeyOracleTimeout),
		Mock:          v.GetBool(KeyMock),
		Addr:          v.GetString(KeyAddr),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		Style:         v.GetString(KeyStyle),
	}
	return c, c.Validate()
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%s must not be empty", KeyModel)
	}
	switch c.Engine {
	case "python", "starlark", "javascript", "js", "goja":
	default:
		return fmt.Errorf("unknown %s %q (want python or javascript)", KeyEngine, c.Engine)
	}
	if c.ExecTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyExecTimeout, c.ExecTimeout)
	}
	if c.OracleTimeout < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyOracleTimeout, c.OracleTimeout)
	}
	return nil
}

// Sandbox returns the executor limits.
func (c Config) Sandbox() sandbox.Config {
	cfg := sandbox.DefaultConfig()
	cfg.Timeout = c.ExecTimeout
	if c.MaxSteps > 0 {
		cfg.MaxSteps = c.MaxSteps
	}
	return cfg
}

// Gemini returns the oracle settings. The key must be resolved first with
// LoadAPIKey.
func (c Config) Gemini(apiKey string) oracle.GeminiConfig {
	return oracle.GeminiConfig{
		APIKey:  apiKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		Timeout: c.OracleTimeout,
	}
}

// LoadAPIKey returns the configured key, falling back to the key file.
// The result is trimmed; an empty key is an error.
func (c Config) LoadAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if c.APIKeyFile == "" {
		return "", fmt.Errorf("no api key configured: %w", oracle.ErrEmptyCredential)
	}

	data, err := os.ReadFile(c.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read api key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s: %w", c.APIKeyFile, oracle.ErrEmptyCredential)
	}
	return key, nil
}
