package vkbot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// MaxMessageLength is the messages.send text limit.
const MaxMessageLength = 4096

var (
	mentionBracketRe = regexp.MustCompile(`\[id(\d+)\|.*?\]`)
	mentionAtRe      = regexp.MustCompile(`@id(\d+)`)
	attachmentRe     = regexp.MustCompile(`^(photo|video|doc|audio)(-?\d+)_(\d+)(?:_(.*))?$`)
)

// ExtractCommand splits "/cmd args" into the lowercase command and its
// argument tail. Both are empty when text is not a command.
func ExtractCommand(text string) (command, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	parts := strings.SplitN(text[1:], " ", 2)
	command = strings.ToLower(parts[0])
	if len(parts) > 1 {
		args = parts[1]
	}
	return command, args
}

// ExtractMentions collects user ids mentioned as [id123|Name] or @id123.
// Each id appears once, in first-seen order.
func ExtractMentions(text string) []int64 {
	var ids []int64
	for _, match := range mentionBracketRe.FindAllStringSubmatch(text, -1) {
		if id, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	for _, match := range mentionAtRe.FindAllStringSubmatch(text, -1) {
		if id, err := strconv.ParseInt(match[1], 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return lo.Uniq(ids)
}

// SplitText chunks text into parts of at most maxLength runes worth of
// bytes, breaking on lines first, then words. A single word longer than
// the limit is hard-split.
func SplitText(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}
	if len(text) <= maxLength {
		return []string{text}
	}

	var parts []string
	current := ""

	flush := func() {
		if current != "" {
			parts = append(parts, current)
			current = ""
		}
	}

	appendWithSep := func(chunk, sep string) {
		switch {
		case current == "":
			current = chunk
		case len(current)+len(sep)+len(chunk) <= maxLength:
			current += sep + chunk
		default:
			flush()
			current = chunk
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if len(current)+len(line)+1 <= maxLength {
			appendWithSep(line, "\n")
			continue
		}
		flush()
		if len(line) <= maxLength {
			current = line
			continue
		}
		for _, word := range strings.Split(line, " ") {
			if len(word) > maxLength {
				flush()
				for i := 0; i < len(word); i += maxLength {
					end := i + maxLength
					if end > len(word) {
						end = len(word)
					}
					parts = append(parts, word[i:end])
				}
				continue
			}
			appendWithSep(word, " ")
		}
	}
	flush()
	return parts
}

// ParsePayload decodes a button payload. Non-JSON strings come back as
// {"data": payload} so raw payloads stay addressable.
func ParsePayload(payload string) map[string]any {
	if payload == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return map[string]any{"data": payload}
	}
	return out
}

// BuildAttachment renders "ownerID_mediaID[_accessKey]".
func BuildAttachment(ownerID, mediaID int64, accessKey string) string {
	out := fmt.Sprintf("%d_%d", ownerID, mediaID)
	if accessKey != "" {
		out += "_" + accessKey
	}
	return out
}

// ParseAttachment decomposes strings like "photo123_456_key".
// ok is false when the string is not a recognized attachment.
func ParseAttachment(attachment string) (kind string, ownerID, mediaID int64, accessKey string, ok bool) {
	match := attachmentRe.FindStringSubmatch(attachment)
	if match == nil {
		return "", 0, 0, "", false
	}
	ownerID, _ = strconv.ParseInt(match[2], 10, 64)
	mediaID, _ = strconv.ParseInt(match[3], 10, 64)
	return match[1], ownerID, mediaID, match[4], true
}

// IsGroupEvent reports whether an update type is a community lifecycle
// event rather than a message flow event.
func IsGroupEvent(eventType string) bool {
	switch eventType {
	case EventGroupJoin, EventGroupLeave, EventGroupChangePhoto,
		EventGroupChangeSettings, EventGroupOfficersEdit:
		return true
	}
	return false
}

// FormatTime renders a unix timestamp as dd.mm.yyyy hh:mm.
func FormatTime(timestamp int64) string {
	return time.Unix(timestamp, 0).Format("02.01.2006 15:04")
}

// CreateLink renders the [url|text] markup VK turns into a link.
func CreateLink(text, url string) string {
	return fmt.Sprintf("[%s|%s]", url, text)
}

// IsGroupChat reports whether peerID addresses a group conversation.
func IsGroupChat(peerID int64) bool {
	return peerID > groupChatOffset
}

// UserIDFromPeer strips the group-chat offset when present.
func UserIDFromPeer(peerID int64) int64 {
	if IsGroupChat(peerID) {
		return peerID - groupChatOffset
	}
	return peerID
}
