package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/swingworks/swingsense/internal/sensor"
	"github.com/swingworks/swingsense/internal/sensor/ble"
	"github.com/swingworks/swingsense/internal/storage"
	"github.com/swingworks/swingsense/internal/swing"
)

const storageDir = "data"

// Run wires the sensor source, swing detector, storage and optional state
// API together and blocks until the context is cancelled or the sample
// stream ends.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	source, err := createSource(&config.Sensor, logger)
	if err != nil {
		return fmt.Errorf("failed to create sensor source: %w", err)
	}

	detector, err := swing.New(config.detectorConfig(), swing.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create detector: %w", err)
	}

	orchestrator := NewOrchestrator(source, detector, store, logger,
		WithMaxBatchSize(config.Storage.MaxBatchSize),
		WithPracticeMode(config.Detection.PracticeMode),
		WithSessionConfig(config.Detection))

	var server *http.Server
	if config.Server.Enabled {
		server = newServer(config.Server.Addr, detector, orchestrator)
		go func() {
			logger.Info("state API listening", slog.String("addr", config.Server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(fmt.Sprintf("state API failed: %s", err.Error()))
			}
		}()
	}

	err = orchestrator.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if sErr := server.Shutdown(shutdownCtx); sErr != nil {
			logger.Warn(fmt.Sprintf("state API shutdown: %s", sErr.Error()))
		}
	}

	return err
}

func createSource(config *SensorConfig, logger *slog.Logger) (sensor.Source, error) {
	switch config.Driver {
	case DriverReplay:
		return sensor.NewReplay(config.Replay, logger), nil
	case DriverSynthetic:
		return sensor.NewSynthetic(config.Synthetic, logger), nil
	case DriverBLE:
		return ble.NewCentral(config.BLE, logger), nil
	default:
		return nil, fmt.Errorf("unknown driver '%s'", config.Driver)
	}
}

func createStorage(config *StorageConfig) (*storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("swing_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.New(dbPath), nil
}
