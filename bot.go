package vkbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mchkv/vkbot/api"
	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/longpoll"
	"github.com/mchkv/vkbot/state"
)

var ErrHandlerNil = errors.New("vkbot: handler func required")

// Options configures one Bot. The zero value works for community
// tokens: group id is resolved from the token and state lives in memory.
type Options struct {
	// GroupID skips the groups.getById lookup when set.
	GroupID int64
	// Storage backs per-user dialog state. Defaults to memory.
	Storage state.Storage
	// API tunes the underlying client.
	API api.Config
	// LongPoll tunes the polling loop.
	LongPoll longpoll.Config
}

// Bot dispatches VK updates to registered handlers.
type Bot struct {
	api      *api.Client
	opts     Options
	log      zerolog.Logger
	states   *state.Manager
	machines *state.Registry

	mu      sync.RWMutex
	me      *User
	groupID int64

	msgHandlers []*messageHandler
	cbHandlers  []*callbackHandler
	middlewares []middleware
}

func New(token string, opts Options) (*Bot, error) {
	logging.ConfigureRuntime()
	client, err := api.NewClient(token, opts.API)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:      client,
		opts:     opts,
		log:      logging.Component("bot"),
		states:   state.NewManager(opts.Storage),
		machines: state.NewRegistry(),
		groupID:  opts.GroupID,
	}, nil
}

func (b *Bot) API() *api.Client { return b.api }

// States exposes the dialog state manager.
func (b *Bot) States() *state.Manager { return b.states }

// Machines exposes the FSM registry shared by this bot's flows.
func (b *Bot) Machines() *state.Registry { return b.machines }

// GroupID resolves (and caches) the community id of the token.
func (b *Bot) GroupID(ctx context.Context) (int64, error) {
	b.mu.RLock()
	id := b.groupID
	b.mu.RUnlock()
	if id != 0 {
		return id, nil
	}

	group, err := b.api.GroupsGetByID(ctx)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	b.groupID = group.ID
	b.mu.Unlock()
	return group.ID, nil
}

// Me resolves (and caches) the profile behind the token.
func (b *Bot) Me(ctx context.Context) (*User, error) {
	b.mu.RLock()
	me := b.me
	b.mu.RUnlock()
	if me != nil {
		return me, nil
	}

	raw, err := b.api.UsersGet(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("vkbot: decode profile: %w", err)
	}
	b.mu.Lock()
	b.me = &user
	b.mu.Unlock()
	return &user, nil
}

// HandleMessage registers a message handler. Handlers are tried in
// registration order; the first whose filter matches wins.
func (b *Bot) HandleMessage(filter MessageFilter, fn HandlerFunc) error {
	if fn == nil {
		return ErrHandlerNil
	}
	h, err := newMessageHandler(filter, fn)
	if err != nil {
		return err
	}
	b.msgHandlers = append(b.msgHandlers, h)
	return nil
}

// HandleCallback registers a callback-button handler.
func (b *Bot) HandleCallback(filter CallbackFilter, fn HandlerFunc) error {
	if fn == nil {
		return ErrHandlerNil
	}
	h, err := newCallbackHandler(filter, fn)
	if err != nil {
		return err
	}
	b.cbHandlers = append(b.cbHandlers, h)
	return nil
}

// Use registers middleware for the given update types (nil = all).
// Middleware runs before handler matching and may veto the update.
func (b *Bot) Use(updateTypes []string, fn MiddlewareFunc) {
	if fn == nil {
		return
	}
	b.middlewares = append(b.middlewares, middleware{fn: fn, updateTypes: updateTypes})
}

// SendOptions carries optional messages.send arguments.
type SendOptions struct {
	Markup     Markup
	ReplyTo    int64
	Attachment string
	// Extra is merged into the request last; any messages.send
	// parameter can be forced through it.
	Extra api.Params
}

func (o *SendOptions) params() (api.Params, error) {
	p := api.Params{}
	if o == nil {
		return p, nil
	}
	if o.Markup != nil {
		keyboard, err := o.Markup.Keyboard()
		if err != nil {
			return nil, fmt.Errorf("vkbot: render keyboard: %w", err)
		}
		p.Set("keyboard", string(keyboard))
	}
	if o.ReplyTo != 0 {
		p.SetInt("reply_to", o.ReplyTo)
	}
	if o.Attachment != "" {
		p.Set("attachment", o.Attachment)
	}
	p.Merge(o.Extra)
	return p, nil
}

// SendMessage posts text to peerID.
func (b *Bot) SendMessage(ctx context.Context, peerID int64, text string, opts *SendOptions) (int64, error) {
	extra, err := opts.params()
	if err != nil {
		return 0, err
	}
	return b.api.MessagesSend(ctx, peerID, text, extra)
}

// ReplyTo posts text as a reply to m.
func (b *Bot) ReplyTo(ctx context.Context, m *Message, text string, opts *SendOptions) (int64, error) {
	if opts == nil {
		opts = &SendOptions{}
	}
	opts.ReplyTo = m.ID
	return b.SendMessage(ctx, m.Chat().ID, text, opts)
}

// SendPhoto uploads photo and sends it to peerID with an optional caption.
func (b *Bot) SendPhoto(ctx context.Context, peerID int64, photo io.Reader, caption string, opts *SendOptions) (int64, error) {
	attachment, err := b.api.UploadMessagesPhoto(ctx, peerID, photo)
	if err != nil {
		return 0, err
	}
	if opts == nil {
		opts = &SendOptions{}
	}
	opts.Attachment = attachment
	return b.SendMessage(ctx, peerID, caption, opts)
}

// SendDocument uploads doc and sends it to peerID with an optional caption.
func (b *Bot) SendDocument(ctx context.Context, peerID int64, filename string, doc io.Reader, caption string, opts *SendOptions) (int64, error) {
	attachment, err := b.api.UploadMessagesDoc(ctx, peerID, filename, "", doc)
	if err != nil {
		return 0, err
	}
	if opts == nil {
		opts = &SendOptions{}
	}
	opts.Attachment = attachment
	return b.SendMessage(ctx, peerID, caption, opts)
}

// AnswerCallback acknowledges a button press; a non-empty text shows
// as a snackbar.
func (b *Bot) AnswerCallback(ctx context.Context, cb *CallbackQuery, text string) error {
	var eventData any
	if text != "" {
		eventData = map[string]string{"type": "show_snackbar", "text": text}
	}
	return b.api.MessagesSendEventAnswer(ctx, cb.ID, cb.FromID, cb.PeerID, eventData)
}

// AnswerCallbackEvent acknowledges a button press with a custom
// event_data object (open_link, open_app, show_snackbar).
func (b *Bot) AnswerCallbackEvent(ctx context.Context, cb *CallbackQuery, eventData any) error {
	return b.api.MessagesSendEventAnswer(ctx, cb.ID, cb.FromID, cb.PeerID, eventData)
}

// ProcessUpdate runs middleware and dispatches u to the first matching
// handler. The handler's error is returned; no match is not an error.
func (b *Bot) ProcessUpdate(ctx context.Context, u *Update) error {
	c := &Context{bot: b, ctx: ctx, update: u}

	for _, mw := range b.middlewares {
		if !mw.applies(u.Type) {
			continue
		}
		proceed, err := mw.fn(c)
		if err != nil {
			return fmt.Errorf("vkbot: middleware: %w", err)
		}
		if !proceed {
			return nil
		}
	}

	if m := u.Message(); m != nil {
		c.state = b.states.Context(m.FromID)
		currentState := b.userState(ctx, m.FromID)
		for _, h := range b.msgHandlers {
			if h.check(m, currentState) {
				return h.fn(c)
			}
		}
		return nil
	}

	if cb := u.Callback(); cb != nil {
		c.state = b.states.Context(cb.FromID)
		currentState := b.userState(ctx, cb.FromID)
		for _, h := range b.cbHandlers {
			if h.check(cb, currentState) {
				return h.fn(c)
			}
		}
	}
	return nil
}

// userState reads the user's FSM state; storage errors degrade to the
// empty state so dispatch keeps working.
func (b *Bot) userState(ctx context.Context, userID int64) string {
	current, err := b.states.State(ctx, userID)
	if err != nil {
		b.log.Warn().Int64("user_id", userID).Err(err).Msg("state read failed")
		return ""
	}
	return current
}

// StartPolling runs the Long Poll loop until ctx is canceled. Handler
// errors are logged, not fatal.
func (b *Bot) StartPolling(ctx context.Context) error {
	groupID, err := b.GroupID(ctx)
	if err != nil {
		return fmt.Errorf("vkbot: resolve group id: %w", err)
	}

	poller := longpoll.New(b.api, groupID, b.opts.LongPoll)
	b.log.Info().Int64("group_id", groupID).Msg("polling started")
	return poller.Run(ctx, func(ctx context.Context, ev longpoll.Event) {
		u := &Update{
			Type:    ev.Type,
			EventID: ev.EventID,
			GroupID: ev.GroupID,
			Object:  ev.Object,
		}
		if err := b.ProcessUpdate(ctx, u); err != nil {
			b.log.Error().Str("type", u.Type).Err(err).Msg("update handler failed")
		}
	})
}
