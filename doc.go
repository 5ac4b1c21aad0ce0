// Package vkbot is a framework for VK community (group) bots.
//
// It covers the Bots Long Poll API and the Callback API, message and
// callback-button dispatch with composable filters, and per-user dialog
// state over pluggable storage backends.
//
// A minimal echo bot:
//
//	bot, err := vkbot.New(token, vkbot.Options{})
//	if err != nil {
//		log.Fatal().Err(err).Msg("bot init")
//	}
//	bot.HandleMessage(vkbot.MessageFilter{}, func(c *vkbot.Context) error {
//		_, err := c.Reply(c.Message().Text)
//		return err
//	})
//	bot.StartPolling(ctx)
package vkbot
