package config

import (
	"log"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	GetAPIBaseURL() string
	GetDataFolder() string
	GetHTTPTimeout() time.Duration
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

var dotenvOnce sync.Once

func New() Config {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
	return mainConfig{}
}
