package vkbot

import "encoding/json"

// CallbackQuery is one message_event object: a user pressed an inline
// callback button.
type CallbackQuery struct {
	ID        string         // event_id, needed for sendMessageEventAnswer
	FromID    int64          // pressing user
	PeerID    int64          // conversation the button lives in
	MessageID int64          // conversation_message_id of the keyboard message
	Payload   map[string]any // decoded button payload
	Data      string         // payload["data"] shortcut set by InlineButton
}

type callbackWire struct {
	EventID               string          `json:"event_id"`
	UserID                int64           `json:"user_id"`
	PeerID                int64           `json:"peer_id"`
	ConversationMessageID int64           `json:"conversation_message_id"`
	Payload               json.RawMessage `json:"payload"`
}

func decodeCallbackQuery(raw json.RawMessage) (*CallbackQuery, error) {
	var wire callbackWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	cb := &CallbackQuery{
		ID:        wire.EventID,
		FromID:    wire.UserID,
		PeerID:    wire.PeerID,
		MessageID: wire.ConversationMessageID,
	}

	payload := decodePayload(wire.Payload)
	if payload != nil {
		cb.Payload = payload
		if data, ok := payload["data"].(string); ok {
			cb.Data = data
		}
	}
	return cb, nil
}

// decodePayload accepts either a payload object or a JSON string holding
// one; VK sends both shapes depending on the client.
func decodePayload(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return ParsePayload(str)
	}
	return nil
}
