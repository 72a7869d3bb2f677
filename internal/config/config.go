package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Persistence variant selection: "remote" or "local"
	Backend string

	// Remote variant: Postgres
	PGHost        string
	PGPort        string
	PGUser        string
	PGPassword    string
	PGDatabase    string
	PGSSLMode     string
	SessionsTable string

	// Remote variant: change feed
	AMQPURL      string
	AMQPExchange string

	// Local variant
	SQLiteDBPath string
}

func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8080"),
		Backend: getEnv("BACKEND", "local"),

		PGHost:        getEnv("PG_HOST", ""),
		PGPort:        getEnv("PG_PORT", "5432"),
		PGUser:        getEnv("PG_USER", "piutang"),
		PGPassword:    getEnv("PG_PASSWORD", ""),
		PGDatabase:    getEnv("PG_DATABASE", ""),
		PGSSLMode:     getEnv("PG_SSLMODE", "require"),
		SessionsTable: getEnv("SESSIONS_TABLE", "sessions"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "piutang_changes"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/piutang.db"),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "remote":
		if c.PGHost == "" {
			errors = append(errors, "PG_HOST cannot be empty when using the remote backend")
		}
		if c.PGDatabase == "" {
			errors = append(errors, "PG_DATABASE cannot be empty when using the remote backend")
		}
		if c.SessionsTable == "" {
			errors = append(errors, "SESSIONS_TABLE cannot be empty when using the remote backend")
		}
	case "local":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using the local backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of [remote local]", c.Backend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
