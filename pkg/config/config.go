package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tourdesk/pkg/client"
	"tourdesk/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RequestTimeout time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Account lock policy applied on failed logins.
	MaxLoginAttempts  int
	AccountLockWindow time.Duration

	// Lifecycle event publishing; empty topic disables it.
	EventsTopic    string
	EventsDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MaxLoginAttempts:  getEnvNum(EnvMaxLoginAttempts, DefaultMaxLoginAttempts),
		AccountLockWindow: getEnvDuration(EnvAccountLockWindow, DefaultAccountLockWindow),

		EventsTopic:    getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic: getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
	}

	cfg.Log = logger.New(logger.Config{
		Level:   getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:  getEnvStr(EnvLogFormat, DefaultLogFormat),
		Service: serviceName,
	})

	return cfg
}

func (cfg *Config) SetMongo() {
	if cfg.Client == nil {
		cfg.Client = client.NewClient()
	}
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	if cfg.MongoURI == "" {
		return fmt.Errorf("mongo URI cannot be empty")
	}
	if cfg.MongoDatabaseName == "" {
		return fmt.Errorf("mongo database name cannot be empty")
	}
	if cfg.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.MaxLoginAttempts <= 0 {
		return fmt.Errorf("max login attempts must be positive, got: %d", cfg.MaxLoginAttempts)
	}
	if cfg.AccountLockWindow <= 0 {
		return fmt.Errorf("account lock window must be positive, got: %s", cfg.AccountLockWindow)
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return fmt.Errorf("store timeouts must be positive")
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded",
		"mongo_database", cfg.MongoDatabaseName,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"max_login_attempts", cfg.MaxLoginAttempts,
		"account_lock_window", cfg.AccountLockWindow,
		"events_topic", cfg.EventsTopic,
	)
}

func getEnvStr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
