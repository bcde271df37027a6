package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by the provider key.
const (
	ProviderAuto       = "auto"
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderEcho       = "echo"
)

// Configuration is the decoded gflights configuration.
type Configuration struct {
	Provider string `mapstructure:"provider"`
	Gemini   struct {
		APIKey string `mapstructure:"api_key"`
		Model  string `mapstructure:"model"`
	} `mapstructure:"gemini"`
	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Model   string `mapstructure:"model"`
	} `mapstructure:"openai"`
	OpenRouter struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Model   string `mapstructure:"model"`
		Referer string `mapstructure:"referer"`
		AppName string `mapstructure:"app_name"`
	} `mapstructure:"openrouter"`
	Temperature float64       `mapstructure:"temperature"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	Flights     struct {
		DSN  string `mapstructure:"dsn"`
		Seed bool   `mapstructure:"seed"`
	} `mapstructure:"flights"`
	Assistant struct {
		Name          string `mapstructure:"name"`
		ReferenceYear int    `mapstructure:"reference_year"`
	} `mapstructure:"assistant"`
	LogLevel string `mapstructure:"log_level"`
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("provider", ProviderAuto)
	vp.SetDefault("gemini.api_key", "")
	vp.SetDefault("gemini.model", "gemini-1.5-pro")
	vp.SetDefault("openai.api_key", "")
	vp.SetDefault("openai.base_url", "")
	vp.SetDefault("openai.model", "")
	vp.SetDefault("openrouter.api_key", "")
	vp.SetDefault("openrouter.base_url", "")
	vp.SetDefault("openrouter.model", "")
	vp.SetDefault("openrouter.referer", "")
	vp.SetDefault("openrouter.app_name", "gflights")
	vp.SetDefault("temperature", 0.4)
	vp.SetDefault("tool_timeout", 30*time.Second)
	vp.SetDefault("flights.dsn", "file:gflights?mode=memory&cache=shared")
	vp.SetDefault("flights.seed", true)
	vp.SetDefault("assistant.name", "ReX")
	vp.SetDefault("assistant.reference_year", 2024)
	vp.SetDefault("log_level", "info")
}

// Load reads configuration from path, or from config/gflights.yaml when path
// is empty and the file exists, then applies GFLIGHTS_* environment overrides.
// The provider API keys also honour GEMINI_API_KEY, OPENAI_API_KEY and
// OPENROUTER_API_KEY.
func Load(path string) (*Configuration, error) {
	vp := viper.New()
	setDefaults(vp)

	vp.SetEnvPrefix("gflights")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()
	for key, env := range map[string]string{
		"gemini.api_key":     "GEMINI_API_KEY",
		"openai.api_key":     "OPENAI_API_KEY",
		"openrouter.api_key": "OPENROUTER_API_KEY",
	} {
		if err := vp.BindEnv(key, "GFLIGHTS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if path != "" {
		vp.SetConfigFile(path)
	} else {
		vp.SetConfigName("gflights")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("config")
	}
	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Configuration
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Configuration) Validate() error {
	switch c.Provider {
	case ProviderAuto, ProviderGemini, ProviderOpenAI, ProviderOpenRouter, ProviderEcho:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be positive, got %s", c.ToolTimeout)
	}
	if c.Assistant.ReferenceYear <= 0 {
		return fmt.Errorf("assistant.reference_year must be positive, got %d", c.Assistant.ReferenceYear)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Configuration) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// ResolveProvider turns "auto" into a concrete provider: the first of
// gemini, openrouter and openai with an API key, else echo.
func (c *Configuration) ResolveProvider() string {
	if c.Provider != ProviderAuto {
		return c.Provider
	}
	switch {
	case c.Gemini.APIKey != "":
		return ProviderGemini
	case c.OpenRouter.APIKey != "":
		return ProviderOpenRouter
	case c.OpenAI.APIKey != "":
		return ProviderOpenAI
	default:
		return ProviderEcho
	}
}
