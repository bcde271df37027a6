package openrouter

import (
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"gflights/pkg/provider"
	"gflights/pkg/provider/openai"
)

// Config contains OpenRouter credential and runtime options.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPClient  *http.Client
	Temperature float64
	Referer     string // sent as HTTP-Referer for OpenRouter app attribution
	AppName     string // sent as X-Title
}

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultTemperature = 0.4
	defaultModel       = "google/gemini-pro-1.5"
	refererHeaderKey   = "HTTP-Referer"
	appNameHeaderKey   = "X-Title"
)

// NewEngine returns an OpenAI-compatible engine pointed at OpenRouter. Tool
// calling goes through the same tools/tool_choice fields as OpenAI.
func NewEngine(cfg Config) (*openai.Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = firstNonBlank(cfg.BaseURL, defaultBaseURL)
	if client := attributed(cfg); client != nil {
		apiCfg.HTTPClient = client
	}

	temp := cfg.Temperature
	if temp == 0 {
		temp = defaultTemperature
	}
	return openai.NewEngineWithClient("openrouter", goopenai.NewClientWithConfig(apiCfg), provider.SessionOptions{
		Model:       firstNonBlank(cfg.Model, defaultModel),
		Temperature: temp,
	}), nil
}

func firstNonBlank(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// attributed returns cfg.HTTPClient with the attribution headers added to
// every request, or nil when there is nothing to customise.
func attributed(cfg Config) *http.Client {
	headers := http.Header{}
	if v := strings.TrimSpace(cfg.Referer); v != "" {
		headers.Set(refererHeaderKey, v)
	}
	if v := strings.TrimSpace(cfg.AppName); v != "" {
		headers.Set(appNameHeaderKey, v)
	}
	if len(headers) == 0 {
		return cfg.HTTPClient
	}

	var client http.Client
	if cfg.HTTPClient != nil {
		client = *cfg.HTTPClient
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = &headerTransport{headers: headers, base: base}
	return &client
}

type headerTransport struct {
	headers http.Header
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		req.Header[k] = vs
	}
	return t.base.RoundTrip(req)
}
