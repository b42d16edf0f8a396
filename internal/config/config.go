package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the board service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	AnonymousName      string
	PostCooldown       time.Duration
	LimiterPruneEvery  time.Duration
	LimiterEntryTTL    time.Duration
	RoomSendBufferSize int
	RoomCacheTTL       time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NANASHI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Nanashi Board")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "nanashi.db")
	v.SetDefault("anonymous.name", "Anonymous")
	v.SetDefault("post.cooldown", "40s")
	v.SetDefault("limiter.prune_every", "15m")
	v.SetDefault("limiter.entry_ttl", "1h")
	v.SetDefault("room.send_buffer", 32)
	v.SetDefault("room.cache_ttl", "30m")

	cooldown, err := time.ParseDuration(v.GetString("post.cooldown"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid post cooldown: %w", err)
	}

	pruneEvery, err := time.ParseDuration(v.GetString("limiter.prune_every"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid limiter prune interval: %w", err)
	}

	entryTTL, err := time.ParseDuration(v.GetString("limiter.entry_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid limiter entry ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("room.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid room cache ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		AnonymousName:      v.GetString("anonymous.name"),
		PostCooldown:       cooldown,
		LimiterPruneEvery:  pruneEvery,
		LimiterEntryTTL:    entryTTL,
		RoomSendBufferSize: v.GetInt("room.send_buffer"),
		RoomCacheTTL:       cacheTTL,
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.PostCooldown <= 0 {
		cfg.PostCooldown = 40 * time.Second
	}

	if cfg.RoomSendBufferSize <= 0 {
		cfg.RoomSendBufferSize = 32
	}

	return cfg, nil
}
