// Package config provides configuration management for the mini-crm service.
package config

import (
	"os"
	"strings"
	"time"
)

// ServerConfig holds configuration for the HTTP API service.
type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DatabaseURL     string
	WorkerBatchSize int
}

// DefaultServerConfig returns configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            5001,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DatabaseURL:     "sqlite://minicrm.db",
		WorkerBatchSize: 10,
	}
}

// CronSecret extracts the scheduled-job trigger secret from the environment.
// An empty value means the job endpoints run unauthenticated.
func CronSecret() string {
	return strings.TrimSpace(os.Getenv("MINICRM_CRON_SECRET"))
}
