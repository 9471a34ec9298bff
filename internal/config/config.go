package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Resources struct {
	// Bundle is a zip container with stored entries under resources/rawfile/.
	Bundle string `env:"SURFACETEST_BUNDLE"`
	// RawfileDir is used when no bundle is configured.
	RawfileDir string `env:"SURFACETEST_RAWFILE_DIR" env-default:"rawfile"`
}

type Library struct {
	DBPath      string        `env:"SURFACETEST_LIBRARY_DB" env-default:"medialib.db"`
	ScanWorkers int           `env:"SURFACETEST_SCAN_WORKERS" env-default:"4"`
	BusyTimeout time.Duration `env:"SURFACETEST_LIBRARY_BUSY_TIMEOUT" env-default:"5s"`
}

type Permissions struct {
	File      string `env:"SURFACETEST_PERMISSIONS_FILE" env-default:"permissions.yaml"`
	AutoGrant bool   `env:"SURFACETEST_AUTO_GRANT" env-default:"true"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	// File receives log output while the TUI owns the terminal.
	File string `env:"LOG_FILE" env-default:"surfacetest.log"`
}

type Config struct {
	Resources   Resources
	Library     Library
	Permissions Permissions
	Log         Log
}

// Load reads the environment, after merging an optional dotenv file.
// A missing dotenv file is not an error.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.Library.ScanWorkers < 1 {
		cfg.Library.ScanWorkers = 1
	}
	return &cfg, nil
}

// UsesBundle reports whether resources come from a bundle container.
func (r Resources) UsesBundle() bool {
	if r.Bundle == "" {
		return false
	}
	info, err := os.Stat(r.Bundle)
	return err == nil && !info.IsDir()
}
