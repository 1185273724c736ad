package main

import (
	"imagebot/internal/config"
	logpkg "imagebot/internal/log"
	"imagebot/internal/server"
	"imagebot/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	dotenvErr := godotenv.Load()

	logger := logpkg.CreateLogger()
	defer func() {
		if appLog, ok := logger.(*logpkg.AppLogger); ok {
			_ = appLog.Close()
		}
	}()

	if dotenvErr != nil {
		logger.Warn("No .env file found, using system environment variables")
	}
	logger.Info("Logger initialized")

	storageInstance := storage.InitStorage(logger)
	defer func() { _ = storageInstance.Close() }()

	cfg, err := config.LoadServerConfigFromEnv(logger)
	if err != nil {
		logger.Fatal("Failed to load server configuration: %v", err)
	}

	cfg.Storage = storageInstance
	cfg.Logger = logger

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Failed to close server: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		logger.Error("Server error: %v", err)
	}
}
