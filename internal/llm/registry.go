package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "google_genai"

	DefaultProvider = ProviderGemini
	DefaultModel    = "gemini-2.0-flash"
)

// GeneratorFactory returns a generator bound to model; an empty model selects
// the provider's configured default.
type GeneratorFactory func(model string) JSONGenerator

// Registry resolves (provider, model) pairs into rate-limited coders. All
// coders for one provider share its backoff state.
type Registry struct {
	log             *logger.Logger
	limiter         *ratelimit.Limiter
	factories       map[string]GeneratorFactory
	defaultProvider string
	defaultModel    string
}

func NewRegistry(log *logger.Logger, limiter *ratelimit.Limiter, defaultProvider, defaultModel string) *Registry {
	if strings.TrimSpace(defaultProvider) == "" {
		defaultProvider = DefaultProvider
	}
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = DefaultModel
	}
	return &Registry{
		log:             log,
		limiter:         limiter,
		factories:       map[string]GeneratorFactory{},
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
	}
}

func (r *Registry) Register(provider string, f GeneratorFactory) {
	r.factories[provider] = f
}

func (r *Registry) Providers() []string {
	out := make([]string, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Limiter() *ratelimit.Limiter { return r.limiter }

// Resolve fills in defaults. The default model only applies to the default
// provider; other providers fall back to their own configured model.
func (r *Registry) Resolve(provider, model string) (string, string) {
	provider = strings.TrimSpace(provider)
	model = strings.TrimSpace(model)
	if provider == "" {
		provider = r.defaultProvider
		if model == "" {
			model = r.defaultModel
		}
	}
	return provider, model
}

func (r *Registry) Coder(provider, model string) (Coder, error) {
	provider, model = r.Resolve(provider, model)
	f, ok := r.factories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (available: %s)", provider, strings.Join(r.Providers(), ", "))
	}
	gen := f(model)
	if gen == nil {
		return nil, fmt.Errorf("llm provider %q is not configured", provider)
	}
	return NewCoder(r.log, gen, r.limiter, provider), nil
}
