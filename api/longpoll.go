package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Long Poll failure codes per the Bots Long Poll contract.
const (
	LongPollOK          = 0
	LongPollStaleTS     = 1 // take ts from the response and repeat
	LongPollKeyExpired  = 2 // re-request key
	LongPollInfoLost    = 3 // re-request key and ts
	DefaultLongPollWait = 25 * time.Second
)

// LongPollServer is one groups.getLongPollServer grant.
type LongPollServer struct {
	Server string `json:"server"`
	Key    string `json:"key"`
	TS     string `json:"ts"`
}

// LongPollResponse is one a_check answer. Failed is zero on success.
type LongPollResponse struct {
	TS      string            `json:"ts"`
	Failed  int               `json:"failed"`
	Updates []json.RawMessage `json:"updates"`
}

// GroupsGetLongPollServer grants a fresh Long Poll server/key/ts triple.
func (c *Client) GroupsGetLongPollServer(ctx context.Context, groupID int64) (*LongPollServer, error) {
	raw, err := c.Call(ctx, "groups.getLongPollServer", Params{}.SetInt("group_id", groupID))
	if err != nil {
		return nil, err
	}
	var srv LongPollServer
	if err := json.Unmarshal(raw, &srv); err != nil {
		return nil, fmt.Errorf("api: decode long poll server: %w", err)
	}
	if srv.Server == "" || srv.Key == "" {
		return nil, fmt.Errorf("api: incomplete long poll server grant")
	}
	return &srv, nil
}

// LongPollWait blocks on one a_check cycle against srv. The request
// goes to the Long Poll host directly, outside the method envelope.
func (c *Client) LongPollWait(ctx context.Context, srv *LongPollServer, wait time.Duration) (*LongPollResponse, error) {
	if wait <= 0 {
		wait = DefaultLongPollWait
	}
	waitSec := int(wait / time.Second)

	q := url.Values{}
	q.Set("act", "a_check")
	q.Set("key", srv.Key)
	q.Set("ts", srv.TS)
	q.Set("wait", strconv.Itoa(waitSec))

	reqCtx, cancel := context.WithTimeout(ctx, wait+5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.Server+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("api: build long poll request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: long poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("api: long poll: unexpected status %d", resp.StatusCode)
	}

	var out LongPollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("api: decode long poll response: %w", err)
	}
	return &out, nil
}
