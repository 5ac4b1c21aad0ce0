package vkbot

import (
	"fmt"
	"time"
)

// Chat types as exposed to handler filters.
const (
	ChatPrivate = "private"
	ChatGroup   = "group"
)

// Conversation peer ids above this offset are group chats.
const groupChatOffset int64 = 2_000_000_000

// Chat is the conversation a message belongs to, derived from peer_id.
type Chat struct {
	ID    int64
	Type  string
	Title string
}

// ChatFromPeerID classifies a peer id into a private or group chat.
func ChatFromPeerID(peerID int64) Chat {
	if peerID > groupChatOffset {
		return Chat{
			ID:    peerID,
			Type:  ChatGroup,
			Title: fmt.Sprintf("Chat %d", peerID-groupChatOffset),
		}
	}
	return Chat{ID: peerID, Type: ChatPrivate}
}

// MessageAction is a service action attached to a message
// (chat_invite_user, chat_title_update, ...).
type MessageAction struct {
	Type     string `json:"type"`
	MemberID int64  `json:"member_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Message is one incoming or outgoing message object.
type Message struct {
	ID                    int64          `json:"id"`
	ConversationMessageID int64          `json:"conversation_message_id,omitempty"`
	Date                  int64          `json:"date"`
	PeerID                int64          `json:"peer_id"`
	FromID                int64          `json:"from_id"`
	Text                  string         `json:"text"`
	Out                   int            `json:"out,omitempty"`
	Important             bool           `json:"important,omitempty"`
	Attachments           []Attachment   `json:"attachments,omitempty"`
	ReplyMessage          *Message       `json:"reply_message,omitempty"`
	FwdMessages           []Message      `json:"fwd_messages,omitempty"`
	Payload               string         `json:"payload,omitempty"`
	Action                *MessageAction `json:"action,omitempty"`
}

func (m *Message) Time() time.Time {
	return time.Unix(m.Date, 0)
}

func (m *Message) Chat() Chat {
	return ChatFromPeerID(m.PeerID)
}

// IsPrivate reports whether the message came from a one-on-one dialog.
func (m *Message) IsPrivate() bool {
	return m.PeerID == m.FromID
}

// ContentType classifies the message for handler filters: "text" when
// text is present, otherwise the first attachment's type, an
// "action_<type>" marker, or "unknown".
func (m *Message) ContentType() string {
	switch {
	case m.Text != "":
		return "text"
	case len(m.Attachments) > 0:
		if m.Attachments[0].Type == "" {
			return "unknown"
		}
		return m.Attachments[0].Type
	case m.Action != nil:
		return "action_" + m.Action.Type
	}
	return "unknown"
}

// Photos collects photo attachments.
func (m *Message) Photos() []Photo {
	var out []Photo
	for _, att := range m.Attachments {
		if att.Type == AttachmentPhoto && att.Photo != nil {
			out = append(out, *att.Photo)
		}
	}
	return out
}

// Documents collects document attachments.
func (m *Message) Documents() []Document {
	var out []Document
	for _, att := range m.Attachments {
		if att.Type == AttachmentDoc && att.Doc != nil {
			out = append(out, *att.Doc)
		}
	}
	return out
}
