package backend

import (
	"fmt"

	"github.com/ardiutama/Piutang/internal/config"
)

// Config holds what backend creation needs, per variant.
type Config struct {
	Variant Variant

	// Remote variant
	PGHost        string
	PGPort        string
	PGUser        string
	PGPassword    string
	PGDatabase    string
	PGSSLMode     string
	SessionsTable string
	AMQPURL       string
	AMQPExchange  string

	// Local variant
	SQLiteDBPath string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	variant := Variant(appConfig.Backend)
	if !variant.IsValid() {
		return Config{}, fmt.Errorf("invalid backend variant in config: %s", appConfig.Backend)
	}

	return Config{
		Variant: variant,

		PGHost:        appConfig.PGHost,
		PGPort:        appConfig.PGPort,
		PGUser:        appConfig.PGUser,
		PGPassword:    appConfig.PGPassword,
		PGDatabase:    appConfig.PGDatabase,
		PGSSLMode:     appConfig.PGSSLMode,
		SessionsTable: appConfig.SessionsTable,
		AMQPURL:       appConfig.AMQPURL,
		AMQPExchange:  appConfig.AMQPExchange,

		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate checks the variant-specific required fields.
func (c Config) Validate() error {
	if !c.Variant.IsValid() {
		return fmt.Errorf("invalid backend variant: %s", c.Variant)
	}

	switch c.Variant {
	case RemoteVariant:
		if c.PGHost == "" || c.PGDatabase == "" {
			return fmt.Errorf("postgres host and database are required for the remote variant")
		}
		// The change feed is optional; a lone session works without it.
	case LocalVariant:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("sqlite database path is required for the local variant")
		}
	}

	return nil
}
