package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read from CHAT_* variables, e.g. CHAT_STORE_DRIVER.
type Config struct {
	StoreDriver       string        `envconfig:"STORE_DRIVER" default:"badger"`
	BadgerFilepath    string        `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	AuthTokenDuration time.Duration `envconfig:"AUTH_TOKEN_DURATION" default:"24h"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"WARN"`
	// CHAT_COLOURS enables colorized output
	Colours bool `envconfig:"COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("CHAT", &cfg)
	return cfg, err
}
