package vkbot

import "encoding/json"

// Update types delivered by the Bots Long Poll and Callback APIs.
const (
	EventMessageNew          = "message_new"
	EventMessageReply        = "message_reply"
	EventMessageEvent        = "message_event"
	EventGroupJoin           = "group_join"
	EventGroupLeave          = "group_leave"
	EventGroupChangePhoto    = "group_change_photo"
	EventGroupChangeSettings = "group_change_settings"
	EventGroupOfficersEdit   = "group_officers_edit"
)

// Update is one event envelope. Object stays raw until a typed accessor
// projects it; projections are cached.
type Update struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	GroupID int64           `json:"group_id,omitempty"`
	Object  json.RawMessage `json:"object"`

	message  *Message
	callback *CallbackQuery
}

// Message projects a message_new object. Returns nil for other update
// types or undecodable objects.
func (u *Update) Message() *Message {
	if u.Type != EventMessageNew || len(u.Object) == 0 {
		return nil
	}
	if u.message != nil {
		return u.message
	}

	// 5.103+ wraps the message; older group events ship it bare.
	var wrapped struct {
		Message *Message `json:"message"`
	}
	if err := json.Unmarshal(u.Object, &wrapped); err == nil && wrapped.Message != nil {
		u.message = wrapped.Message
		return u.message
	}
	var bare Message
	if err := json.Unmarshal(u.Object, &bare); err == nil && bare.PeerID != 0 {
		u.message = &bare
		return u.message
	}
	return nil
}

// Callback projects a message_event object. Returns nil for other types.
func (u *Update) Callback() *CallbackQuery {
	if u.Type != EventMessageEvent || len(u.Object) == 0 {
		return nil
	}
	if u.callback != nil {
		return u.callback
	}
	cb, err := decodeCallbackQuery(u.Object)
	if err != nil {
		return nil
	}
	u.callback = cb
	return u.callback
}
