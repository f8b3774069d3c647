package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string

	// политики движка, см. risk.Options
	LinkConverge     bool
	RestoreOnResolve bool
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		ServerPort:       os.Getenv("SERVER_PORT"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		LinkConverge:     os.Getenv("LINK_CONVERGE") == "true",
		RestoreOnResolve: os.Getenv("RESTORE_ON_RESOLVE") == "true",
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}

	return cfg
}
