package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"reservpark/config"
	"reservpark/internal/activity"
	"reservpark/internal/api"
	"reservpark/internal/bridge"
	"reservpark/internal/db"
	"reservpark/internal/deeplink"
	"reservpark/internal/liveactivity"
	"reservpark/internal/metrics"
	"reservpark/internal/mw"
	"reservpark/internal/notification"
	"reservpark/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "reservpark ", log.LstdFlags)

	// A missing .env is fine outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	pusher := notification.NewPusher(appStore, &webpushOptions)

	alerts := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.Queue, pusher)
	alerts.Start(ctx)

	m := metrics.New()

	platformBridge, err := newBridge(ctx, cfg, pusher, logger)
	if err != nil {
		logger.Fatalf("failed to initialize live activity bridge: %v", err)
	}
	logger.Printf("live activity platform: %s", cfg.Activity.Platform)

	state := activity.NewStore()
	state.Observe(m.ObserveState)

	history := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)
	svc := liveactivity.NewService(state, m.InstrumentBridge(platformBridge), alerts,
		liveactivity.WithLocation(cfg.Activity.Location),
		liveactivity.WithArchive(api.NewHistoryArchive(appStore, history)),
	)

	links := deeplink.NewRouter(cfg.DeepLink.Scheme, svc, cfg.DeepLink.Buffer,
		deeplink.WithPrompter(alerts),
		deeplink.WithObserver(m.ObserveDeepLink),
	)
	go func() {
		if err := links.Run(ctx, cfg.DeepLink.LaunchURL); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("deep link router stopped: %v", err)
		}
	}()

	handler := api.NewHandler(appStore, &webpushOptions, svc, links)
	router := api.NewRouter(handler, cfg.Server, m, history)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newBridge builds the bridge for the configured platform. A platform whose
// credentials are missing falls back to the unsupported bridge.
func newBridge(ctx context.Context, cfg *config.Config, pusher *notification.Pusher, logger *log.Logger) (bridge.Bridge, error) {
	opts := bridge.Options{
		FCMTopic: cfg.FCM.Topic,
	}

	switch cfg.Activity.Platform {
	case config.PlatformWebPush:
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Printf("Warning: VAPID keys are not configured; live activities are unavailable")
			cfg.Activity.Platform = config.PlatformUnsupported
			break
		}
		opts.Pusher = pusher
	case config.PlatformFCM:
		if cfg.FCM.CredentialsFile == "" {
			logger.Printf("Warning: fcm.credentials_file is not set; live activities are unavailable")
			cfg.Activity.Platform = config.PlatformUnsupported
			break
		}
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FCM.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
		}
		opts.FCM = client
	}

	return bridge.New(cfg.Activity.Platform, opts)
}
