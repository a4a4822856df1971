package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the default configuration file if it does not exist yet.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if !cmd.IsSet("config") && r.configPath != "" {
		configPath = r.configPath
	}

	if _, err := os.Stat(configPath); err == nil {
		if _, err := shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("existing config at %s is invalid: %w", configPath, err)
		}
		r.logger.Info("config file already exists", "path", configPath)
		r.writePlain("✓ Config already present at %s\n", configPath)
		return nil
	}

	r.logger.Info("config file not found, creating from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set backend.token in %s, or export %s\n", configPath, shared.EnvBackendToken)
	r.writePlain("2. Run 'tunesub browse' to list curated playlists\n")
	return nil
}
