package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// DatabasePath is the sqlite database file.
	DatabasePath string

	// SearchURL is the base URL of the full-text search index.
	SearchURL string

	// InitSchema creates missing tables on startup. Meant for local
	// development; production schemas are managed by the importer.
	InitSchema bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port := 3000
	if p := os.Getenv("PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "hansard.db"
	}

	searchURL := os.Getenv("SEARCH_URL")
	if searchURL == "" {
		return nil, fmt.Errorf("SEARCH_URL is required")
	}

	initSchema := false
	if v := os.Getenv("INIT_SCHEMA"); v != "" {
		var err error
		initSchema, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid INIT_SCHEMA: %w", err)
		}
	}

	return &Config{
		Port:         port,
		DatabasePath: dbPath,
		SearchURL:    searchURL,
		InitSchema:   initSchema,
	}, nil
}
