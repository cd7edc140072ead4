package app

import (
	"context"

	"github.com/yungbote/fulltheme-backend/internal/clients/redis"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/platform/gemini"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/platform/openai"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type Clients struct {
	OpenAI      openai.Client
	Gemini      gemini.Client
	LimiterSync *redis.LimiterStatusStore
	Limiter     *ratelimit.Limiter
	LLM         *llm.Registry
}

// wireClients builds the provider clients and the shared limiter. A provider
// without credentials stays registered so requests naming it fail with a
// clear error instead of an unknown-provider one.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	var opts []ratelimit.Option
	if cfg.Redis.Addr != "" {
		store, err := redis.NewLimiterStatusStore(ctx, log, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.RateLimit.ResetAfter,
		})
		if err != nil {
			log.Warn("Redis unavailable, limiter status stays process-local", "error", err)
		} else {
			out.LimiterSync = store
			opts = append(opts, ratelimit.WithMirror(store))
		}
	}
	out.Limiter = ratelimit.New(log, cfg.RateLimit, opts...)
	out.LLM = llm.NewRegistry(log, out.Limiter, cfg.LLM.DefaultProvider, cfg.LLM.DefaultModel)

	// OpenAI
	if oc, err := openai.NewClient(log, openai.ConfigFromEnv()); err != nil {
		log.Warn("OpenAI client disabled", "error", err)
	} else {
		out.OpenAI = oc
	}
	out.LLM.Register(llm.ProviderOpenAI, func(model string) llm.JSONGenerator {
		if out.OpenAI == nil {
			return nil
		}
		return openai.WithModel(out.OpenAI, model)
	})

	// Gemini
	if gc, err := gemini.NewClient(ctx, log, gemini.ConfigFromEnv()); err != nil {
		log.Warn("Gemini client disabled", "error", err)
	} else {
		out.Gemini = gc
	}
	out.LLM.Register(llm.ProviderGemini, func(model string) llm.JSONGenerator {
		if out.Gemini == nil {
			return nil
		}
		return gemini.WithModel(out.Gemini, model)
	})

	return out, nil
}

func (c Clients) Close() {
	if c.LimiterSync != nil {
		_ = c.LimiterSync.Close()
	}
}
