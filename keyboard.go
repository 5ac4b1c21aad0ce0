package vkbot

import "encoding/json"

// Button colors accepted by VK keyboards.
const (
	ColorPrimary   = "primary"
	ColorSecondary = "secondary"
	ColorNegative  = "negative"
	ColorPositive  = "positive"
)

// Markup is a keyboard attachable to messages.send.
type Markup interface {
	// Keyboard renders the VK keyboard JSON.
	Keyboard() ([]byte, error)
}

// Button is one reply-keyboard button.
type Button struct {
	Text  string
	Color string
}

func (b Button) wire() map[string]any {
	color := b.Color
	if color == "" {
		color = ColorPrimary
	}
	return map[string]any{
		"action": map[string]any{
			"type":  "text",
			"label": b.Text,
		},
		"color": color,
	}
}

// ReplyKeyboard replaces the user's input panel with text buttons.
type ReplyKeyboard struct {
	rows    [][]Button
	oneTime bool
}

func NewReplyKeyboard(oneTime bool) *ReplyKeyboard {
	return &ReplyKeyboard{oneTime: oneTime}
}

// Row appends one row of buttons. Empty rows are ignored.
func (k *ReplyKeyboard) Row(buttons ...Button) *ReplyKeyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

func (k *ReplyKeyboard) Keyboard() ([]byte, error) {
	rows := make([][]map[string]any, 0, len(k.rows))
	for _, row := range k.rows {
		wireRow := make([]map[string]any, 0, len(row))
		for _, btn := range row {
			wireRow = append(wireRow, btn.wire())
		}
		rows = append(rows, wireRow)
	}
	return json.Marshal(map[string]any{
		"buttons":  rows,
		"one_time": k.oneTime,
	})
}

// InlineButton is one button of an inline keyboard. Set exactly one of
// Data (callback), URL (open_link), or AppID (open_app).
type InlineButton struct {
	Text    string
	Data    string
	URL     string
	AppID   int64
	OwnerID int64
	Hash    string
}

func (b InlineButton) wire() (map[string]any, error) {
	action := map[string]any{
		"type":  "text",
		"label": b.Text,
	}
	switch {
	case b.Data != "":
		payload, err := json.Marshal(map[string]string{"data": b.Data})
		if err != nil {
			return nil, err
		}
		action["type"] = "callback"
		action["payload"] = string(payload)
	case b.URL != "":
		action["type"] = "open_link"
		action["link"] = b.URL
	case b.AppID != 0:
		action["type"] = "open_app"
		action["app_id"] = b.AppID
		if b.OwnerID != 0 {
			action["owner_id"] = b.OwnerID
		}
		if b.Hash != "" {
			action["hash"] = b.Hash
		}
	}
	return map[string]any{"action": action}, nil
}

// InlineKeyboard attaches buttons under a message.
type InlineKeyboard struct {
	rows [][]InlineButton
}

func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{}
}

func (k *InlineKeyboard) Row(buttons ...InlineButton) *InlineKeyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

func (k *InlineKeyboard) Keyboard() ([]byte, error) {
	rows := make([][]map[string]any, 0, len(k.rows))
	for _, row := range k.rows {
		wireRow := make([]map[string]any, 0, len(row))
		for _, btn := range row {
			wire, err := btn.wire()
			if err != nil {
				return nil, err
			}
			wireRow = append(wireRow, wire)
		}
		rows = append(rows, wireRow)
	}
	return json.Marshal(map[string]any{
		"buttons": rows,
		"inline":  true,
	})
}
