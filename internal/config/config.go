// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package config provides layered configuration loading via Koanf v2.
//
// Precedence, highest wins: environment variables > YAML config file >
// built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Annotato server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Storage   StorageConfig   `koanf:"storage"`
	Security  SecurityConfig  `koanf:"security"`
	Websocket WebsocketConfig `koanf:"websocket"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// BusyTimeout bounds how long a writer waits on a locked database.
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// StorageConfig holds uploaded-file blob storage settings.
type StorageConfig struct {
	// DataDir is the directory uploaded file blobs are written to.
	DataDir string `koanf:"data_dir"`

	// MaxUploadBytes caps a single multipart upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// SecurityConfig holds authentication and abuse-protection settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens. Minimum 32 characters.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenLifetime is how long issued tokens stay valid.
	TokenLifetime time.Duration `koanf:"token_lifetime"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// CORSOrigins lists allowed CORS origins. "*" allows all.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitPerMinute is the per-IP request budget for data endpoints.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// LoginRateLimitPerMinute is the per-IP budget for login attempts.
	LoginRateLimitPerMinute int `koanf:"login_rate_limit_per_minute"`
}

// WebsocketConfig holds live-channel settings.
type WebsocketConfig struct {
	// SendBuffer is the per-connection outbound queue length. A connection
	// that cannot drain this many pending snapshots is dropped.
	SendBuffer int `koanf:"send_buffer"`

	// SignalBuffer is the hub's pending edit-signal queue length.
	SignalBuffer int `koanf:"signal_buffer"`

	// FetchTimeout bounds one annotation-store fetch during an edit cycle.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// loaded first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "data/annotato.db",
			BusyTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:        "data/files",
			MaxUploadBytes: 64 << 20, // 64MB
		},
		Security: SecurityConfig{
			JWTSecret:               "",
			TokenLifetime:           30 * 24 * time.Hour,
			BcryptCost:              12,
			CORSOrigins:             []string{"*"},
			RateLimitPerMinute:      300,
			LoginRateLimitPerMinute: 10,
		},
		Websocket: WebsocketConfig{
			SendBuffer:   256,
			SignalBuffer: 256,
			FetchTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be 4-31, got %d", c.Security.BcryptCost)
	}
	if c.Websocket.SendBuffer < 1 {
		return fmt.Errorf("websocket.send_buffer must be positive")
	}
	if c.Websocket.SignalBuffer < 1 {
		return fmt.Errorf("websocket.signal_buffer must be positive")
	}
	return nil
}
