package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// MessagesSend posts one message to peerID. extra carries any additional
// messages.send parameters (keyboard, reply_to, attachment, ...).
// Returns the new message id.
func (c *Client) MessagesSend(ctx context.Context, peerID int64, text string, extra Params) (int64, error) {
	p := Params{}.
		SetInt("peer_id", peerID).
		Set("message", text).
		SetInt("random_id", RandomID()).
		Merge(extra)

	raw, err := c.Call(ctx, "messages.send", p)
	if err != nil {
		return 0, err
	}

	// Plain int on single-peer sends; an object list when peer_ids is used.
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var multi []struct {
		PeerID    int64 `json:"peer_id"`
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(raw, &multi); err == nil && len(multi) > 0 {
		return multi[0].MessageID, nil
	}
	return 0, fmt.Errorf("api: messages.send: unexpected response %s", string(raw))
}

// MessagesSendEventAnswer acknowledges one callback button event.
// eventData, when set, must marshal to a VK event_data object
// (show_snackbar, open_link, open_app).
func (c *Client) MessagesSendEventAnswer(ctx context.Context, eventID string, userID, peerID int64, eventData any) error {
	p := Params{}.
		Set("event_id", eventID).
		SetInt("user_id", userID).
		SetInt("peer_id", peerID)
	if eventData != nil {
		if err := p.SetJSON("event_data", eventData); err != nil {
			return fmt.Errorf("api: encode event_data: %w", err)
		}
	}
	_, err := c.Call(ctx, "messages.sendMessageEventAnswer", p)
	return err
}
