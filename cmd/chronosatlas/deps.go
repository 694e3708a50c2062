package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/chronosatlas"
	"github.com/siherrmann/chronosatlas/helper"
)

// loadEnv reads envFile into the environment. Variables that are already
// set win over the file.
func loadEnv() error {
	if envFile == "" {
		return nil
	}

	err := godotenv.Load(envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(helper.NewPrettyHandler(os.Stderr, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))
}

func openDatabase(logger *slog.Logger) (*helper.Database, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("loading database configuration: %w", err)
	}

	db, err := helper.NewDatabase("chronosatlas", dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// openAtlas connects with the server configuration's secret key, which
// signs pagination cursors.
func openAtlas(logger *slog.Logger, serverConfig *helper.ServerConfiguration, migrate bool) (*chronosatlas.Atlas, error) {
	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, fmt.Errorf("loading database configuration: %w", err)
	}

	atlas, err := chronosatlas.NewAtlas(dbConfig, chronosatlas.Options{
		SecretKey: serverConfig.SecretKey,
		Logger:    logger,
		Migrate:   migrate,
	})
	if err != nil {
		return nil, fmt.Errorf("opening atlas: %w", err)
	}
	return atlas, nil
}

// openAtlasForTask is used by the commands that never issue cursors
func openAtlasForTask(logger *slog.Logger) (*chronosatlas.Atlas, error) {
	serverConfig := &helper.ServerConfiguration{SecretKey: os.Getenv("SECRET_KEY")}
	if serverConfig.SecretKey == "" {
		serverConfig.SecretKey = "cli"
	}
	return openAtlas(logger, serverConfig, true)
}
