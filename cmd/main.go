package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/audio"
	"github.com/desertthunder/tunesub/internal/services"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	defaultConfigPath = "config.toml"
	envConfigPath     = "TUNESUB_CONFIG"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFile(".env"); err != nil {
		logger.Warn("ignoring env file", "err", err)
	}

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv(envConfigPath); ok && p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "err", err)
		}
	}
	config.ApplyEnv(nil)

	if lvl, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(logger, lvl)
	} else {
		logger.Warn("invalid log level, using info", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := services.NewBackendService(services.BackendOpts{
		BaseURL:     config.Backend.BaseURL,
		TokenSource: services.StaticToken(config.Backend.Token),
		HTTPClient:  &http.Client{Timeout: config.BackendTimeout()},
		Logger:      logger,
	})

	runner := NewRunner(RunnerOpts{
		Config:        config,
		ConfigPath:    configPath,
		Source:        newSource(ctx, config, backend, logger),
		Subscriptions: backend,
		Catalog: services.NewITunesCatalog(services.ITunesOpts{
			BaseURL:    config.Catalog.BaseURL,
			Country:    config.Catalog.Country,
			RateLimit:  config.Catalog.RateLimit,
			Burst:      config.Catalog.Burst,
			HTTPClient: &http.Client{Timeout: config.CatalogTimeout()},
			Logger:     logger,
		}),
		Player: audio.NewExecPlayer(audio.ExecOpts{
			Command: config.Player.Command,
			Args:    config.Player.Args,
			Logger:  logger,
		}),
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "tunesub",
		Usage:    "Browse curated playlists, preview tracks and manage playlist subscriptions",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// newSource picks the playlist listing backend named by browse.source. The Spotify source falls
// back to the subscription backend when its credentials are missing.
func newSource(ctx context.Context, config *shared.Config, backend *services.BackendService, logger *log.Logger) services.Source {
	if config.Browse.Source != shared.SourceSpotify {
		return backend
	}

	src, err := services.NewSpotifySource(ctx, services.SpotifyOpts{
		ClientID:     config.Spotify.ClientID,
		ClientSecret: config.Spotify.ClientSecret,
		Market:       config.Spotify.Market,
		PageSize:     config.Browse.PageSize,
		Logger:       logger,
	})
	if err != nil {
		logger.Warn("spotify source unavailable, using backend", "err", err)
		return backend
	}
	return src
}
