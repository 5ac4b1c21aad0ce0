package vkbot

import (
	"context"

	"github.com/mchkv/vkbot/state"
)

// Context carries one dispatched update through middleware and handlers.
type Context struct {
	bot    *Bot
	ctx    context.Context
	update *Update
	state  *state.Context
}

func (c *Context) Bot() *Bot { return c.bot }

// Ctx is the cancellation context of the polling or webhook request
// that produced this update.
func (c *Context) Ctx() context.Context { return c.ctx }

func (c *Context) Update() *Update { return c.update }

func (c *Context) Message() *Message { return c.update.Message() }

func (c *Context) Callback() *CallbackQuery { return c.update.Callback() }

// State is the per-user dialog state view. Nil for updates without a
// user (group lifecycle events).
func (c *Context) State() *state.Context { return c.state }

// peerID resolves the conversation this update came from.
func (c *Context) peerID() int64 {
	if m := c.Message(); m != nil {
		return m.PeerID
	}
	if cb := c.Callback(); cb != nil {
		return cb.PeerID
	}
	return 0
}

// Send posts text back into the originating conversation.
func (c *Context) Send(text string, opts *SendOptions) (int64, error) {
	return c.bot.SendMessage(c.ctx, c.peerID(), text, opts)
}

// Reply posts text as a reply to the dispatched message.
func (c *Context) Reply(text string) (int64, error) {
	m := c.Message()
	if m == nil {
		return c.Send(text, nil)
	}
	return c.bot.ReplyTo(c.ctx, m, text, nil)
}

// Answer acknowledges a callback button press, optionally with a
// snackbar text. No-op for non-callback updates.
func (c *Context) Answer(text string) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	return c.bot.AnswerCallback(c.ctx, cb, text)
}
