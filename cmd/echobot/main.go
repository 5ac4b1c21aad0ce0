// Command echobot runs a long-poll community bot that echoes messages
// and walks new users through a short signup dialog.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	vkbot "github.com/mchkv/vkbot"
	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/longpoll"
	"github.com/mchkv/vkbot/state"
)

var signup = state.NewGroup("signup", "name", "age")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "echobot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("VKBOT_CONFIG"), "path to config.toml")
	flag.Parse()

	_ = godotenv.Load()
	logging.ConfigureRuntime()
	log := logging.Component("echobot")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	storage, cleanup, err := buildStorage(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	bot, err := vkbot.New(cfg.Token, vkbot.Options{
		GroupID:  cfg.GroupID,
		Storage:  storage,
		LongPoll: longpoll.Config{Wait: cfg.LongPollWait},
	})
	if err != nil {
		return err
	}
	if err := registerHandlers(bot); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("storage", cfg.Storage).Msg("starting long poll")
	return bot.StartPolling(ctx)
}

func buildStorage(cfg runtimeConfig) (state.Storage, func(), error) {
	switch cfg.Storage {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return state.NewRedisStorage(rdb), func() { _ = rdb.Close() }, nil
	case "badger":
		db, err := badger.Open(badger.DefaultOptions(cfg.BadgerDir).WithLogger(nil))
		if err != nil {
			return nil, nil, fmt.Errorf("open badger dir %s: %w", cfg.BadgerDir, err)
		}
		return state.NewBadgerStorage(db), func() { _ = db.Close() }, nil
	default:
		return state.NewMemoryStorage(), func() {}, nil
	}
}

func registerHandlers(bot *vkbot.Bot) error {
	log := logging.Component("handlers")

	bot.Use([]string{vkbot.EventMessageNew}, func(c *vkbot.Context) (bool, error) {
		m := c.Message()
		if m != nil {
			log.Debug().Int64("peer", m.PeerID).Str("type", m.ContentType()).Msg("incoming message")
		}
		return true, nil
	})

	if err := bot.HandleMessage(vkbot.MessageFilter{Commands: []string{"start", "help"}}, func(c *vkbot.Context) error {
		kb := vkbot.NewInlineKeyboard().
			Row(vkbot.InlineButton{Text: "Sign up", Data: "signup"}).
			Row(vkbot.InlineButton{Text: "Project page", URL: "https://github.com/mchkv/vkbot"})
		_, err := c.Send("Hi! I echo what you write. Tap a button to try the dialog flow.", &vkbot.SendOptions{Markup: kb})
		return err
	}); err != nil {
		return err
	}

	if err := bot.HandleMessage(vkbot.MessageFilter{Commands: []string{"cancel"}}, func(c *vkbot.Context) error {
		if err := c.State().Finish(c.Ctx()); err != nil {
			return err
		}
		_, err := c.Reply("Cancelled.")
		return err
	}); err != nil {
		return err
	}

	if err := bot.HandleCallback(vkbot.CallbackFilter{Data: "^signup$"}, func(c *vkbot.Context) error {
		if err := c.State().Set(c.Ctx(), signup.State("name")); err != nil {
			return err
		}
		if err := c.Answer("Let's go"); err != nil {
			return err
		}
		_, err := c.Send("What is your name?", nil)
		return err
	}); err != nil {
		return err
	}

	if err := bot.HandleMessage(vkbot.MessageFilter{States: []string{signup.State("name")}}, func(c *vkbot.Context) error {
		name := strings.TrimSpace(c.Message().Text)
		if name == "" {
			_, err := c.Reply("A name cannot be empty. Try again.")
			return err
		}
		if err := c.State().Update(c.Ctx(), map[string]any{"name": name}); err != nil {
			return err
		}
		if err := c.State().Set(c.Ctx(), signup.State("age")); err != nil {
			return err
		}
		_, err := c.Send("How old are you?", nil)
		return err
	}); err != nil {
		return err
	}

	if err := bot.HandleMessage(vkbot.MessageFilter{
		States: []string{signup.State("age")},
		Regexp: `^\d{1,3}$`,
	}, func(c *vkbot.Context) error {
		name, _, err := c.State().Value(c.Ctx(), "name")
		if err != nil {
			return err
		}
		if err := c.State().Finish(c.Ctx()); err != nil {
			return err
		}
		_, err = c.Send(fmt.Sprintf("Nice to meet you, %v!", name), nil)
		return err
	}); err != nil {
		return err
	}

	if err := bot.HandleMessage(vkbot.MessageFilter{States: []string{signup.State("age")}}, func(c *vkbot.Context) error {
		_, err := c.Reply("Age must be a number. Try again or send /cancel.")
		return err
	}); err != nil {
		return err
	}

	// Fallback: echo any remaining text message.
	return bot.HandleMessage(vkbot.MessageFilter{}, func(c *vkbot.Context) error {
		for _, chunk := range vkbot.SplitText(c.Message().Text, vkbot.MaxMessageLength) {
			if _, err := c.Send(chunk, nil); err != nil {
				return err
			}
		}
		return nil
	})
}
