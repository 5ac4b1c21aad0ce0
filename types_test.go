package vkbot

import (
	"encoding/json"
	"testing"
)

func TestUpdateMessageWrappedShape(t *testing.T) {
	raw := []byte(`{
		"type": "message_new",
		"event_id": "ev1",
		"group_id": 187037543,
		"object": {
			"message": {"id": 7, "peer_id": 100, "from_id": 100, "text": "hello", "date": 1700000000},
			"client_info": {"keyboard": true}
		}
	}`)
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}

	m := u.Message()
	if m == nil {
		t.Fatalf("expected message projection")
	}
	if m.ID != 7 || m.Text != "hello" || m.PeerID != 100 {
		t.Fatalf("unexpected message: %+v", m)
	}
	if u.Message() != m {
		t.Fatalf("projection must be cached")
	}
	if u.Callback() != nil {
		t.Fatalf("message update must not project a callback")
	}
}

func TestUpdateMessageBareShape(t *testing.T) {
	raw := []byte(`{"type":"message_new","object":{"id":3,"peer_id":55,"from_id":55,"text":"old shape"}}`)
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	m := u.Message()
	if m == nil || m.ID != 3 || m.Text != "old shape" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestUpdateCallbackProjection(t *testing.T) {
	raw := []byte(`{
		"type": "message_event",
		"object": {
			"event_id": "abc",
			"user_id": 100,
			"peer_id": 100,
			"conversation_message_id": 12,
			"payload": {"data": "buy_7"}
		}
	}`)
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}

	cb := u.Callback()
	if cb == nil {
		t.Fatalf("expected callback projection")
	}
	if cb.ID != "abc" || cb.FromID != 100 || cb.MessageID != 12 {
		t.Fatalf("unexpected callback: %+v", cb)
	}
	if cb.Data != "buy_7" {
		t.Fatalf("unexpected data shortcut: %q", cb.Data)
	}
	if u.Message() != nil {
		t.Fatalf("callback update must not project a message")
	}
}

func TestCallbackPayloadStringShape(t *testing.T) {
	raw := []byte(`{"event_id":"e","user_id":1,"peer_id":1,"payload":"{\"data\":\"menu\"}"}`)
	cb, err := decodeCallbackQuery(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cb.Data != "menu" {
		t.Fatalf("string-wrapped payload must decode, got %q", cb.Data)
	}
}

func TestMessageContentType(t *testing.T) {
	cases := []struct {
		name string
		m    Message
		want string
	}{
		{"text", Message{Text: "hi"}, "text"},
		{"photo", Message{Attachments: []Attachment{{Type: AttachmentPhoto}}}, "photo"},
		{"doc", Message{Attachments: []Attachment{{Type: AttachmentDoc}}}, "doc"},
		{"action", Message{Action: &MessageAction{Type: "chat_invite_user"}}, "action_chat_invite_user"},
		{"empty", Message{}, "unknown"},
	}
	for _, tc := range cases {
		if got := tc.m.ContentType(); got != tc.want {
			t.Fatalf("%s: ContentType = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestChatFromPeerID(t *testing.T) {
	private := ChatFromPeerID(123)
	if private.Type != ChatPrivate || private.ID != 123 {
		t.Fatalf("unexpected chat: %+v", private)
	}
	group := ChatFromPeerID(2_000_000_004)
	if group.Type != ChatGroup {
		t.Fatalf("unexpected chat: %+v", group)
	}
	msg := Message{PeerID: 42, FromID: 42}
	if !msg.IsPrivate() {
		t.Fatalf("self-peer message must classify as private")
	}
}

func TestPhotoURLPicksLargest(t *testing.T) {
	p := Photo{Sizes: []PhotoSize{
		{Type: "s", URL: "small", Width: 75, Height: 75},
		{Type: "z", URL: "large", Width: 1080, Height: 720},
		{Type: "m", URL: "medium", Width: 130, Height: 87},
	}}
	if got := p.URL(); got != "large" {
		t.Fatalf("unexpected url: %q", got)
	}
	if got := (Photo{}).URL(); got != "" {
		t.Fatalf("no sizes must yield empty url, got %q", got)
	}
}

func TestAttachmentStringsFromTypes(t *testing.T) {
	p := Photo{ID: 457239017, OwnerID: -187037543, AccessKey: "k"}
	if got := p.Attachment(); got != "photo-187037543_457239017_k" {
		t.Fatalf("unexpected photo attachment: %q", got)
	}
	d := Document{ID: 2, OwnerID: 1}
	if got := d.Attachment(); got != "doc1_2" {
		t.Fatalf("unexpected doc attachment: %q", got)
	}
}

func TestUserHelpers(t *testing.T) {
	u := User{ID: 1, FirstName: "Ann", LastName: "Lee"}
	if u.FullName() != "Ann Lee" {
		t.Fatalf("unexpected full name: %q", u.FullName())
	}
	if u.Mention() != "[id1|Ann]" {
		t.Fatalf("unexpected mention: %q", u.Mention())
	}
	if (User{FirstName: "Solo"}).FullName() != "Solo" {
		t.Fatalf("single name must trim")
	}
}
