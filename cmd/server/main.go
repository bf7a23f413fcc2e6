package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/api"
	"github.com/robo-univ/agent-portal/internal/auth"
	"github.com/robo-univ/agent-portal/internal/cache"
	"github.com/robo-univ/agent-portal/internal/config"
	"github.com/robo-univ/agent-portal/internal/core"
	"github.com/robo-univ/agent-portal/internal/store"
)

func main() {
	config.LoadConfig()
	config.SetupLogger(config.AppConfig)

	seedFile := flag.String("seed", "", "Create or update agents from a YAML file and exit")
	issueToken := flag.String("issue-token", "", "Print a development token for this user id and exit")
	tokenRole := flag.String("role", store.RoleUser, "Role for -issue-token (user, agent_admin, super_admin)")
	flag.Parse()

	if *issueToken != "" {
		token, err := auth.GenerateJWT(*issueToken, *tokenRole)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer dbStore.Close()

	if *seedFile != "" {
		log.Info().Str("file", *seedFile).Msg("Seeding agents")
		n, err := dbStore.SeedAgentsFromFile(context.Background(), *seedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Agent seeding failed")
		}
		log.Info().Int("agents", n).Msg("Agent seeding complete. Exiting.")
		return
	}

	llmService, err := core.NewLLMService(context.Background(), config.AppConfig.GeminiAPIKey, config.AppConfig.DefaultLLMModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	defer llmService.Close()

	var translationCache cache.Cache
	if config.AppConfig.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:       config.AppConfig.RedisAddr,
			Password:   config.AppConfig.RedisPassword,
			DB:         config.AppConfig.RedisDB,
			DefaultTTL: config.AppConfig.TranslationCacheTTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, translations will not be cached")
		} else {
			translationCache = redisCache
			defer redisCache.Close()
			log.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Translation cache enabled")
		}
	}

	translator := core.NewTranslator(llmService, translationCache, core.TranslatorConfig{
		Model:    config.AppConfig.DefaultLLMModel,
		Timeout:  config.AppConfig.TranslationTimeout,
		CacheTTL: config.AppConfig.TranslationCacheTTL,
	})
	engine := core.NewResponseEngine(dbStore, llmService, translator, core.EngineConfig{
		Timeout:      config.AppConfig.LLMTimeout,
		Deadline:     config.AppConfig.ResponseTimeout,
		HistoryLimit: config.AppConfig.HistoryLimit,
		DefaultModel: config.AppConfig.DefaultLLMModel,
	})

	agentService := core.NewAgentService(dbStore, config.AppConfig.AllowedLLMModels)
	chatService := core.NewChatService(dbStore, engine, config.AppConfig.HistoryLimit)
	documentService := core.NewDocumentService(dbStore, config.AppConfig.UploadDir)

	apiHandler := api.NewAPIHandler(dbStore, translationCache, agentService, chatService, documentService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.AppConfig.ResponseTimeout + 15*time.Second, // engine deadline plus storage
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Starting server. Press Ctrl+C to quit.")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", serverAddr).Msg("Could not listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting gracefully")
}
