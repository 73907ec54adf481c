package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/namvu/mentorchat/internal/api/handler"
	customMiddleware "github.com/namvu/mentorchat/internal/api/middleware"
	"github.com/namvu/mentorchat/internal/config"
	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/llm"
	"github.com/namvu/mentorchat/internal/llm/anthropic"
	"github.com/namvu/mentorchat/internal/llm/deepseek"
	"github.com/namvu/mentorchat/internal/llm/gemini"
	"github.com/namvu/mentorchat/internal/llm/ollama"
	"github.com/namvu/mentorchat/internal/llm/openai"
	"github.com/namvu/mentorchat/internal/repository/redis"
	"github.com/namvu/mentorchat/internal/service"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router.
// redisClient may be nil; caching and rate limiting are skipped without it.
func NewRouter(cfg *config.Config, repo domain.ConversationRepository, store handler.Pinger, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Chat backend providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing chat providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		llmRouter.RegisterProvider(deepseek.NewProvider(cfg.LLM.DeepSeek.APIKey, cfg.LLM.DeepSeek.Model))
	}
	if cfg.LLM.Ollama.Host != "" {
		log.Info().Str("host", cfg.LLM.Ollama.Host).Msg("Registering Ollama provider")
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}

	// Cache and rate limiter
	var cache service.ConversationCache
	var rateLimiter *redis.RateLimiter
	if redisClient != nil {
		cache = redis.NewConversationCache(redisClient, cfg.Chat.CacheTTL)
		rateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.Chat.RateLimit.RequestsPerMinute,
			cfg.Chat.RateLimit.Burst,
		)
	}

	// Services
	sessions := service.NewSessionManager(repo)
	chatService := service.NewChatService(repo, sessions, llmRouter, cache)

	// Handlers
	chatHandler := handler.NewChatHandler(chatService)
	conversationHandler := handler.NewConversationHandler(chatService)

	adminMiddleware := customMiddleware.NewAdminMiddleware(cfg.Chat.AdminToken)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(store))

		r.Group(func(r chi.Router) {
			if rateLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(rateLimiter).Limit)
			}
			r.Post("/chat", chatHandler.Send)
		})

		r.Get("/sessions", conversationHandler.List)

		r.Route("/conversation/{sessionID}", func(r chi.Router) {
			r.Get("/", conversationHandler.Get)
			r.With(adminMiddleware.Require).Delete("/", conversationHandler.Delete)
		})
	})

	return r
}
