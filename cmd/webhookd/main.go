// Command webhookd serves the Callback API endpoint for a community:
// the push-delivery alternative to the long-poll echobot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	vkbot "github.com/mchkv/vkbot"
	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "webhookd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("VKBOT_CONFIG"), "path to config.toml")
	flag.Parse()

	_ = godotenv.Load()
	logging.ConfigureRuntime()
	log := logging.Component("webhookd")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	bot, err := vkbot.New(cfg.Token, vkbot.Options{GroupID: cfg.GroupID})
	if err != nil {
		return err
	}
	if err := bot.HandleMessage(vkbot.MessageFilter{Commands: []string{"ping"}}, func(c *vkbot.Context) error {
		_, err := c.Reply("pong")
		return err
	}); err != nil {
		return err
	}

	srv, err := webhook.New(bot, webhook.Config{
		Path:         cfg.Path,
		Confirmation: cfg.Confirmation,
		Secret:       cfg.Secret,
		DedupeTTL:    cfg.DedupeTTL,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Addr).Str("path", cfg.Path).Msg("serving callback endpoint")
	return srv.Run(ctx, cfg.Addr)
}
