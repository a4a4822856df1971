package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override secrets and log level from the config file.
const (
	EnvBackendToken  = "TUNESUB_BACKEND_TOKEN"
	EnvBackendURL    = "TUNESUB_BACKEND_URL"
	EnvSpotifyID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifySecret = "SPOTIFY_CLIENT_SECRET"
	EnvLogLevel      = "TUNESUB_LOG_LEVEL"
)

// LoadEnvFile loads a dotenv file into the process environment. A missing file is not an error.
//
// Variables already set in the environment win over the file.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment overrides onto c. lookup defaults to [os.LookupEnv].
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for key, dst := range map[string]*string{
		EnvBackendToken:  &c.Backend.Token,
		EnvBackendURL:    &c.Backend.BaseURL,
		EnvSpotifyID:     &c.Spotify.ClientID,
		EnvSpotifySecret: &c.Spotify.ClientSecret,
		EnvLogLevel:      &c.Log.Level,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
}

// EnvMap reads a dotenv file without touching the process environment and returns a lookup over it.
func EnvMap(path string) (func(string) (string, bool), error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		v, ok := vals[key]
		return v, ok
	}, nil
}
