package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"iot-console/internal/config"
	httpapi "iot-console/internal/http"
	"iot-console/internal/mqtt"
	"iot-console/internal/notify"
	"iot-console/internal/repository"
	"iot-console/internal/seed"
	"iot-console/internal/service"
	"iot-console/internal/store"
	"iot-console/pkg/database"
	"iot-console/pkg/logger"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "iot-console")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting iot-console",
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Bool("redis_enabled", cfg.RedisEnabled),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled))

	// Session persistence: Redis when enabled, in-process fallback otherwise.
	var kv store.KV
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		kv = store.NewRedisKV(rdb)
		zapLogger.Info("Redis session store connected", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = store.NewMemoryKV()
		zapLogger.Info("Using in-memory session store")
	}

	var devicesRepo repository.DevicesRepository
	var directoryRepo repository.DirectoryRepository
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close(db)
		devicesRepo = repository.NewPostgresDevicesRepo(db)
		directoryRepo = repository.NewPostgresDirectoryRepo(db)
		zapLogger.Info("PostgreSQL repositories ready")
	} else {
		devicesRepo = repository.NewMemoryDevicesRepo()
		directoryRepo = repository.NewMemoryDirectoryRepo()
		zapLogger.Info("Using in-memory repositories")
	}

	if err := seed.Load(context.Background(), devicesRepo, directoryRepo, zapLogger); err != nil {
		zapLogger.Warn("Failed to load demo fixtures", zap.Error(err))
	}

	authSvc := service.NewAuthService(kv, service.StubVerifier{}, zapLogger)

	// Outbound notifications are gated by the active profile's toggles.
	var notifier service.Notifier = service.NopNotifier{}
	var webhook *notify.WebhookNotifier
	if cfg.Webhook.URL != "" {
		webhook = notify.NewWebhookNotifier(cfg.Webhook.URL, authSvc.CurrentNotifications, zapLogger)
		notifier = webhook
		zapLogger.Info("Webhook notifier enabled", zap.String("url", cfg.Webhook.URL))
	}

	deviceSvc := service.NewDeviceService(devicesRepo, zapLogger)
	directorySvc := service.NewDirectoryService(directoryRepo, notifier, zapLogger)
	uiState := service.NewUIState()

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.NewClient(&cfg.MQTT, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()

		var cameraNotifier mqtt.CameraEventNotifier
		if webhook != nil {
			cameraNotifier = webhook
		}
		listener := mqtt.NewStatusListener(devicesRepo, cameraNotifier, zapLogger)
		if err := mqttClient.Subscribe(cfg.MQTT.Topic, 1, listener.HandleMessage); err != nil {
			zapLogger.Fatal("Failed to subscribe to status topic", zap.Error(err))
		}
		zapLogger.Info("MQTT status listener started", zap.String("topic", cfg.MQTT.Topic))
	}

	router := httpapi.NewRouter(zapLogger)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, zapLogger))
	router.RegisterAdminDeviceRoutes(httpapi.NewDevicesHandler(deviceSvc, zapLogger))
	router.RegisterAdminDirectoryRoutes(httpapi.NewDirectoryHandler(directorySvc, zapLogger))
	router.RegisterUIRoutes(httpapi.NewUIHandler(uiState, zapLogger))

	server := service.NewServer(cfg.HTTP.Addr, router, zapLogger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		zapLogger.Error("Failed to stop HTTP server gracefully", zap.Error(err))
	}
	zapLogger.Info("iot-console stopped")
}
