package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/accounts"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/config"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/handlers"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/kick"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/middleware"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/models"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/proxyutil"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/storage"
	"github.com/Higanws/Kick-Viewer-Bot-Net/internal/viewer"
)

func main() {
	// Set up logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Info().
		Str("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Bool("redis", cfg.RedisURL != "").
		Dur("heartbeat_interval", cfg.HeartbeatInterval).
		Msg("Starting Kick viewer test server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select the configuration store
	var store storage.ConfigStore
	if cfg.RedisURL != "" {
		redisStore, err := storage.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisStore.Close()
		store = redisStore
		log.Info().Msg("Connected to Redis")
	} else {
		fileStore, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open data directory")
		}
		store = fileStore
	}

	// Load the proxy and user-agent lists; they stay read-only for the
	// lifetime of the process
	proxiesText, err := store.LoadProxies(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load proxies")
	}
	proxies := proxyutil.ParseList(proxiesText)

	uasText, err := store.LoadUserAgents(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load user agents")
	}
	userAgents := proxyutil.ParseUserAgents(uasText)

	// Account pool; a failed load degrades to no authenticated viewers
	accountManager := accounts.NewManager(store, cfg.AccountCooldown)
	accountManager.Load(ctx)

	log.Info().
		Int("proxies", len(proxies)).
		Int("user_agents", len(userAgents)).
		Int("accounts", accountManager.ActiveCount()).
		Msg("Resources loaded")

	clientFactory := func(p models.Proxy, userAgent, authCookie string) (kick.Getter, error) {
		return kick.NewClient(p, userAgent, authCookie, cfg.RequestTimeout)
	}
	orchestrator := viewer.NewOrchestrator(proxies, userAgents, accountManager, clientFactory, cfg.HeartbeatInterval)

	// Handlers
	configHandler := handlers.NewConfigurationHandler(store, accountManager)
	accountsHandler := handlers.NewAccountsHandler(accountManager)
	wsHandler := handlers.NewWSHandler(orchestrator, cfg.AllowedOrigin)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /ws", wsHandler.Serve)

	mux.HandleFunc("GET /configuration", configHandler.Get)
	mux.HandleFunc("POST /configuration", configHandler.Update)

	mux.HandleFunc("GET /api/accounts", accountsHandler.List)
	mux.HandleFunc("POST /api/accounts", accountsHandler.Create)
	mux.HandleFunc("PATCH /api/accounts/{username}", accountsHandler.Update)
	mux.HandleFunc("DELETE /api/accounts/{username}", accountsHandler.Delete)

	handler := middleware.Recovery(middleware.Logging(middleware.CORS(cfg.AllowedOrigin)(mux)))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Stop any run in flight so sessions release their accounts
	orchestrator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
