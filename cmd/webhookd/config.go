package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type runtimeConfig struct {
	Token        string        `envconfig:"VKBOT_TOKEN" validate:"required"`
	GroupID      int64         `envconfig:"VKBOT_GROUP_ID"`
	Addr         string        `envconfig:"VKBOT_ADDR" default:":8080"`
	Path         string        `envconfig:"VKBOT_CALLBACK_PATH" default:"/callback"`
	Confirmation string        `envconfig:"VKBOT_CONFIRMATION" validate:"required"`
	Secret       string        `envconfig:"VKBOT_SECRET"`
	DedupeTTL    time.Duration `envconfig:"VKBOT_DEDUPE_TTL" default:"5m"`
}

type fileConfig struct {
	Token        string `toml:"token"`
	GroupID      int64  `toml:"group_id"`
	Addr         string `toml:"addr"`
	Path         string `toml:"path"`
	Confirmation string `toml:"confirmation"`
	Secret       string `toml:"secret"`
	DedupeTTL    string `toml:"dedupe_ttl"`
}

func loadConfig(path string) (runtimeConfig, error) {
	var cfg runtimeConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return runtimeConfig{}, fmt.Errorf("read environment: %w", err)
	}

	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return runtimeConfig{}, err
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return runtimeConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func overlayFile(cfg *runtimeConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config (%s): %w", path, err)
	}

	if meta.IsDefined("token") {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("group_id") {
		cfg.GroupID = raw.GroupID
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("path") {
		cfg.Path = strings.TrimSpace(raw.Path)
	}
	if meta.IsDefined("confirmation") {
		cfg.Confirmation = strings.TrimSpace(raw.Confirmation)
	}
	if meta.IsDefined("secret") {
		cfg.Secret = strings.TrimSpace(raw.Secret)
	}
	if meta.IsDefined("dedupe_ttl") {
		ttl, err := time.ParseDuration(strings.TrimSpace(raw.DedupeTTL))
		if err != nil {
			return fmt.Errorf("load config (%s): dedupe_ttl: %w", path, err)
		}
		cfg.DedupeTTL = ttl
	}
	return nil
}
