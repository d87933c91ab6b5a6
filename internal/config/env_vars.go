package config

import (
	"os"
	"time"
)

const (
	apiBaseURLVar  = "FINADVISOR_API_URL"
	dataFolderVar  = "FINADVISOR_DATA_DIR"
	httpTimeoutVar = "FINADVISOR_HTTP_TIMEOUT"

	defaultAPIBaseURL  = "http://localhost:8000"
	defaultHTTPTimeout = 30 * time.Second
)

type EnvVars struct{}

var _ Config = mainConfig{}

// GetAPIBaseURL returns the backend origin all calls are made relative to.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, defaultAPIBaseURL)
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(dataFolderVar, "./data")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	return parseDurationOrDefault(httpTimeoutVar, defaultHTTPTimeout)
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseDurationOrDefault(envVar string, def time.Duration) time.Duration {
	if v := os.Getenv(envVar); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
