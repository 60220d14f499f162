package models

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/reagentlabs/reagent"
)

// Provider identifies an OpenAI-compatible serving endpoint family.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderDeepSeek    Provider = "deepseek"
	ProviderSiliconFlow Provider = "siliconflow"
	ProviderModelScope  Provider = "modelscope"
	ProviderOllama      Provider = "ollama"
	ProviderVLLM        Provider = "vllm"
	ProviderLocal       Provider = "local"
	ProviderCustom      Provider = "custom"
)

// ErrIncompleteConfig is returned when resolution finishes without a model ID,
// API key, or base URL.
var ErrIncompleteConfig = errors.New("models: model ID, API key and base URL must be set via options or environment")

// ProviderConfig is a fully resolved endpoint configuration. Resolution
// happens once; nothing reads the environment after construction.
type ProviderConfig struct {
	Provider Provider
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// EnvFunc looks up an environment variable. os.LookupEnv is the default; tests
// substitute a map-backed lookup.
type EnvFunc func(key string) (string, bool)

// ResolveOption configures provider resolution.
type ResolveOption func(*resolver)

type resolver struct {
	env      EnvFunc
	provider Provider
	model    string
	apiKey   string
	baseURL  string
	timeout  time.Duration
}

// WithEnv sets the environment lookup used during resolution.
func WithEnv(env EnvFunc) ResolveOption {
	return func(r *resolver) { r.env = env }
}

// WithProvider pins the provider instead of auto-detecting it.
func WithProvider(p Provider) ResolveOption {
	return func(r *resolver) { r.provider = p }
}

// WithModel sets the model ID, overriding LLM_MODEL_ID.
func WithModel(model string) ResolveOption {
	return func(r *resolver) { r.model = model }
}

// WithAPIKey sets the API key, overriding the provider key variables.
func WithAPIKey(key string) ResolveOption {
	return func(r *resolver) { r.apiKey = key }
}

// WithBaseURL sets the endpoint, overriding the provider URL variables.
func WithBaseURL(url string) ResolveOption {
	return func(r *resolver) { r.baseURL = url }
}

// WithTimeout sets the per-request timeout, overriding LLM_TIMEOUT.
func WithTimeout(d time.Duration) ResolveOption {
	return func(r *resolver) { r.timeout = d }
}

// ResolveProvider resolves a complete ProviderConfig from explicit options and
// the environment. When no provider is pinned it is detected in order from
// provider-specific key variables, then the base URL's host, then the key
// prefix. Provider defaults fill in whatever the environment leaves out, so a
// single DEEPSEEK_API_KEY (or similar) is enough for a hosted endpoint.
func ResolveProvider(opts ...ResolveOption) (ProviderConfig, error) {
	r := &resolver{env: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}

	if r.model == "" {
		r.model = r.getenv("LLM_MODEL_ID")
	}
	if r.timeout == 0 {
		r.timeout = 60 * time.Second
		if raw := r.getenv("LLM_TIMEOUT"); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
				r.timeout = time.Duration(secs) * time.Second
			}
		}
	}

	if r.provider == "" {
		r.provider = r.detect()
	}

	cfg := ProviderConfig{
		Provider: r.provider,
		Model:    r.model,
		Timeout:  r.timeout,
	}

	switch r.provider {
	case ProviderOpenAI:
		cfg.APIKey = r.firstKey("OPENAI_API_KEY")
		cfg.BaseURL = r.firstURL("OPENAI_BASE_URL", "https://api.openai.com/v1")
	case ProviderDeepSeek:
		cfg.APIKey = r.firstKey("DEEPSEEK_API_KEY")
		cfg.BaseURL = r.firstURL("DEEPSEEK_BASE_URL", "https://api.deepseek.com/v1")
	case ProviderSiliconFlow:
		cfg.APIKey = r.firstKey("SILICONFLOW_API_KEY")
		cfg.BaseURL = r.firstURL("SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1")
	case ProviderModelScope:
		cfg.APIKey = r.firstKey("MODELSCOPE_API_KEY")
		cfg.BaseURL = r.firstURL("MODELSCOPE_BASE_URL", "https://api-inference.modelscope.cn/v1")
	case ProviderOllama:
		// Local inference servers accept any key; a placeholder keeps the
		// client library happy.
		cfg.APIKey = r.firstKey("")
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		cfg.BaseURL = r.firstURL("OLLAMA_BASE_URL", "http://localhost:11434/v1")
	case ProviderVLLM, ProviderLocal:
		cfg.APIKey = r.firstKey("")
		if cfg.APIKey == "" {
			cfg.APIKey = "local"
		}
		cfg.BaseURL = r.firstURL("", "")
	default:
		cfg.Provider = ProviderCustom
		cfg.APIKey = r.firstKey("")
		cfg.BaseURL = r.firstURL("", "")
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	if cfg.Model == "" || cfg.APIKey == "" || cfg.BaseURL == "" {
		return ProviderConfig{}, fmt.Errorf("%w (provider %q)", ErrIncompleteConfig, cfg.Provider)
	}
	return cfg, nil
}

// defaultModel fills in a sensible model ID for hosted providers when neither
// options nor LLM_MODEL_ID name one. Local and custom endpoints serve arbitrary
// models, so they get no default and resolution fails without an explicit ID.
func defaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return reagent.ModelOpenAIGPT4oMini
	case ProviderDeepSeek:
		return reagent.ModelDeepSeekChat
	case ProviderSiliconFlow:
		return reagent.ModelQwen3_32B
	case ProviderModelScope:
		return reagent.ModelQwen25_72B
	default:
		return ""
	}
}

func (r *resolver) getenv(key string) string {
	v, _ := r.env(key)
	return v
}

// firstKey prefers the explicit option, then the provider variable, then the
// generic LLM_API_KEY.
func (r *resolver) firstKey(providerVar string) string {
	if r.apiKey != "" {
		return r.apiKey
	}
	if providerVar != "" {
		if v := r.getenv(providerVar); v != "" {
			return v
		}
	}
	return r.getenv("LLM_API_KEY")
}

func (r *resolver) firstURL(providerVar, fallback string) string {
	if r.baseURL != "" {
		return r.baseURL
	}
	if providerVar != "" {
		if v := r.getenv(providerVar); v != "" {
			return v
		}
	}
	if v := r.getenv("LLM_BASE_URL"); v != "" {
		return v
	}
	return fallback
}

// detect picks a provider from ambient configuration. Provider key variables
// win, then recognizable base URLs, then key prefixes.
func (r *resolver) detect() Provider {
	if r.getenv("DEEPSEEK_API_KEY") != "" {
		return ProviderDeepSeek
	}
	if r.getenv("SILICONFLOW_API_KEY") != "" {
		return ProviderSiliconFlow
	}
	if r.getenv("MODELSCOPE_API_KEY") != "" {
		return ProviderModelScope
	}
	if r.getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}

	baseURL := r.baseURL
	if baseURL == "" {
		baseURL = r.getenv("LLM_BASE_URL")
	}
	if baseURL != "" {
		url := strings.ToLower(baseURL)
		switch {
		case strings.Contains(url, "api.openai.com"):
			return ProviderOpenAI
		case strings.Contains(url, "api.deepseek.com"):
			return ProviderDeepSeek
		case strings.Contains(url, "api.siliconflow.cn"):
			return ProviderSiliconFlow
		case strings.Contains(url, "api-inference.modelscope.cn"):
			return ProviderModelScope
		case strings.Contains(url, "localhost"), strings.Contains(url, "127.0.0.1"):
			if strings.Contains(url, ":11434") {
				return ProviderOllama
			}
			if strings.Contains(url, ":8000") {
				return ProviderVLLM
			}
			return ProviderLocal
		}
	}

	apiKey := r.apiKey
	if apiKey == "" {
		apiKey = r.getenv("LLM_API_KEY")
	}
	if strings.HasPrefix(apiKey, "ms-") {
		return ProviderModelScope
	}

	return ProviderCustom
}
