package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// runtimeConfig is assembled from the environment first, then overlaid
// with an optional TOML file. File keys win over env values.
type runtimeConfig struct {
	Token        string        `envconfig:"VKBOT_TOKEN" validate:"required"`
	GroupID      int64         `envconfig:"VKBOT_GROUP_ID"`
	Storage      string        `envconfig:"VKBOT_STORAGE" default:"memory" validate:"oneof=memory redis badger"`
	RedisAddr    string        `envconfig:"VKBOT_REDIS_ADDR" default:"localhost:6379"`
	BadgerDir    string        `envconfig:"VKBOT_BADGER_DIR" default:".vkbot-state"`
	LongPollWait time.Duration `envconfig:"VKBOT_LONGPOLL_WAIT" default:"25s"`
}

// fileConfig mirrors the echobot config.toml keys.
type fileConfig struct {
	Token        string `toml:"token"`
	GroupID      int64  `toml:"group_id"`
	Storage      string `toml:"storage"`
	RedisAddr    string `toml:"redis_addr"`
	BadgerDir    string `toml:"badger_dir"`
	LongPollWait string `toml:"long_poll_wait"`
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
	if meta.IsDefined("storage") {
		cfg.Storage = strings.TrimSpace(raw.Storage)
	}
	if meta.IsDefined("redis_addr") {
		cfg.RedisAddr = strings.TrimSpace(raw.RedisAddr)
	}
	if meta.IsDefined("badger_dir") {
		cfg.BadgerDir = strings.TrimSpace(raw.BadgerDir)
	}
	if meta.IsDefined("long_poll_wait") {
		wait, err := time.ParseDuration(strings.TrimSpace(raw.LongPollWait))
		if err != nil {
			return fmt.Errorf("load config (%s): long_poll_wait: %w", path, err)
		}
		cfg.LongPollWait = wait
	}
	return nil
}
