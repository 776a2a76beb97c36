package llm

import (
	"fmt"
	"time"
)

// ProviderConfig is the subset of internal/config.LLMProviderConfig the
// factory needs, duplicated here to avoid a dependency from pkg/llm (a
// reusable package) onto the internal config package.
type ProviderConfig struct {
	Adapter               string
	Model                 string
	APIKey                string
	BaseURL               string
	MaxRetries            int
	RetryDelaySeconds     int
	ConnectTimeoutSeconds int
	TotalTimeoutSeconds   int
}

// knownBaseURLs maps a short adapter name to its default OpenAI-compatible
// base URL, for providers that don't require one to be configured.
var knownBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"bigmodel": "https://open.bigmodel.cn/api/paas/v4",
	"minimax":  "https://api.minimax.chat/v1",
}

// New builds an Adapter for the given provider configuration. All supported
// adapters share the OpenAI-compatible wire format; the factory only differs
// on default base URL.
func New(cfg ProviderConfig) (Adapter, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = knownBaseURLs[cfg.Adapter]
		if !ok {
			return nil, fmt.Errorf("llm: unknown adapter %q requires base_url", cfg.Adapter)
		}
	}

	return NewOpenAIAdapter(Config{
		Name:           cfg.Adapter,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
		BaseURL:        baseURL,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: secondsOrDefault(cfg.RetryDelaySeconds, 1),
		ConnectTimeout: secondsOrDefault(cfg.ConnectTimeoutSeconds, 30),
		TotalTimeout:   secondsOrDefault(cfg.TotalTimeoutSeconds, 600),
	}), nil
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
