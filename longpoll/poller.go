// Package longpoll runs Bots Long Poll wait cycles and hands decoded
// event envelopes to a callback. It owns server grant renewal, the ts
// cursor, and the failed-code protocol; it does not interpret events.
package longpoll

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mchkv/vkbot/api"
	"github.com/mchkv/vkbot/internal/logging"
	"github.com/mchkv/vkbot/internal/metrics"
)

// Event is one Long Poll update envelope.
type Event struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id"`
	GroupID int64           `json:"group_id"`
	Object  json.RawMessage `json:"object"`
}

// HandleFunc consumes one event. Called sequentially, in arrival order.
type HandleFunc func(ctx context.Context, ev Event)

// Config tunes one Poller.
type Config struct {
	Wait    time.Duration
	Backoff api.BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Wait: api.DefaultLongPollWait,
		Backoff: api.BackoffConfig{
			InitialDelay: time.Second,
			Multiplier:   2.0,
			MaxDelay:     30 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Wait <= 0 {
		c.Wait = def.Wait
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Poller drives the Long Poll loop for one community.
type Poller struct {
	client  *api.Client
	groupID int64
	cfg     Config
	log     zerolog.Logger
	rng     *rand.Rand

	server *api.LongPollServer
}

func New(client *api.Client, groupID int64, cfg Config) *Poller {
	return &Poller{
		client:  client,
		groupID: groupID,
		cfg:     cfg.WithDefaults(),
		log:     logging.Component("longpoll"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run polls until ctx is canceled. Transport and protocol failures are
// retried with backoff; only ctx cancellation ends the loop.
func (p *Poller) Run(ctx context.Context, handle HandleFunc) error {
	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.server == nil {
			srv, err := p.client.GroupsGetLongPollServer(ctx, p.groupID)
			if err != nil {
				failures++
				metrics.RecordLongPollCycle("grant_error", 0)
				p.log.Warn().Int64("group_id", p.groupID).Int("failures", failures).
					Err(err).Msg("long poll server grant failed")
				if err := p.sleepBackoff(ctx, failures); err != nil {
					return err
				}
				continue
			}
			p.server = srv
			p.log.Info().Int64("group_id", p.groupID).Msg("long poll server acquired")
		}

		resp, err := p.client.LongPollWait(ctx, p.server, p.cfg.Wait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			p.server = nil
			metrics.RecordLongPollCycle("wait_error", 0)
			p.log.Warn().Int("failures", failures).Err(err).Msg("long poll wait failed")
			if err := p.sleepBackoff(ctx, failures); err != nil {
				return err
			}
			continue
		}
		failures = 0

		switch resp.Failed {
		case api.LongPollOK:
			p.server.TS = resp.TS
			metrics.RecordLongPollCycle("ok", len(resp.Updates))
			p.dispatch(ctx, resp.Updates, handle)
		case api.LongPollStaleTS:
			p.server.TS = resp.TS
			metrics.RecordLongPollCycle("stale_ts", 0)
		default:
			// Key expired or history lost: re-request the grant.
			p.server = nil
			metrics.RecordLongPollCycle("regrant", 0)
			p.log.Info().Int("failed", resp.Failed).Msg("long poll grant invalidated")
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, updates []json.RawMessage, handle HandleFunc) {
	for _, raw := range updates {
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			p.log.Warn().Err(err).Msg("undecodable update dropped")
			continue
		}
		if ev.Type == "" {
			continue
		}
		handle(ctx, ev)
	}
}

func (p *Poller) sleepBackoff(ctx context.Context, attempt int) error {
	delay := api.NextBackoffDelay(p.cfg.Backoff, attempt, p.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
