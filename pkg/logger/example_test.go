package logger_test

import (
	"errors"
	"os"

	"github.com/moner050/ddal-kkak/backend/pkg/config"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	log.Debug("This won't appear (level is info)")
	log.Info("API server started")
	log.Infof("Listening on :%s", "8080")
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.NewWithWriter(cfg, os.Stderr).WithComponent("retention")

	log.WithFields(map[string]interface{}{
		"cutoff":  "2025-08-03",
		"deleted": 1520,
	}).Info("Pruned expired snapshots")

	log.WithError(errors.New("connection refused")).Error("Prune failed")
}
