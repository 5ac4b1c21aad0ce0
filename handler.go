package vkbot

import (
	"fmt"
	"regexp"
	"strings"
)

// HandlerFunc processes one dispatched update.
type HandlerFunc func(c *Context) error

// MiddlewareFunc runs before handler matching. Returning false vetoes
// the update; no handler sees it.
type MiddlewareFunc func(c *Context) (bool, error)

// MessageFilter selects which messages a handler receives. Zero value
// matches any text message. All set conditions must hold.
type MessageFilter struct {
	// Commands matches "/cmd ..." texts, without the slash.
	Commands []string
	// Regexp matches against the message text.
	Regexp string
	// Match is an arbitrary predicate over the message.
	Match func(m *Message) bool
	// ContentTypes defaults to ["text"].
	ContentTypes []string
	// ChatTypes restricts to ChatPrivate and/or ChatGroup.
	ChatTypes []string
	// States restricts to users currently in one of these FSM states.
	States []string
}

// CallbackFilter selects which button events a handler receives.
type CallbackFilter struct {
	// Data matches (as a regexp) against the callback payload data.
	Data string
	// Match is an arbitrary predicate over the callback.
	Match func(cb *CallbackQuery) bool
	// States restricts to users currently in one of these FSM states.
	States []string
}

type messageHandler struct {
	fn           HandlerFunc
	commands     []string
	regexp       *regexp.Regexp
	match        func(*Message) bool
	contentTypes []string
	chatTypes    []string
	states       []string
}

func newMessageHandler(filter MessageFilter, fn HandlerFunc) (*messageHandler, error) {
	h := &messageHandler{
		fn:           fn,
		match:        filter.Match,
		contentTypes: filter.ContentTypes,
		chatTypes:    filter.ChatTypes,
		states:       filter.States,
	}
	for _, cmd := range filter.Commands {
		h.commands = append(h.commands, strings.ToLower(cmd))
	}
	if filter.Regexp != "" {
		re, err := regexp.Compile(filter.Regexp)
		if err != nil {
			return nil, fmt.Errorf("vkbot: message filter regexp: %w", err)
		}
		h.regexp = re
	}
	if len(h.contentTypes) == 0 {
		h.contentTypes = []string{"text"}
	}
	return h, nil
}

func (h *messageHandler) check(m *Message, currentState string) bool {
	if m == nil {
		return false
	}
	if len(h.states) > 0 && !contains(h.states, currentState) {
		return false
	}
	if len(h.chatTypes) > 0 && !contains(h.chatTypes, m.Chat().Type) {
		return false
	}
	if !contains(h.contentTypes, m.ContentType()) {
		return false
	}
	if h.match != nil && !h.match(m) {
		return false
	}
	if len(h.commands) > 0 {
		cmd, _ := ExtractCommand(m.Text)
		if cmd == "" || !contains(h.commands, cmd) {
			return false
		}
	}
	if h.regexp != nil && !h.regexp.MatchString(m.Text) {
		return false
	}
	return true
}

type callbackHandler struct {
	fn     HandlerFunc
	data   *regexp.Regexp
	match  func(*CallbackQuery) bool
	states []string
}

func newCallbackHandler(filter CallbackFilter, fn HandlerFunc) (*callbackHandler, error) {
	h := &callbackHandler{
		fn:     fn,
		match:  filter.Match,
		states: filter.States,
	}
	if filter.Data != "" {
		re, err := regexp.Compile(filter.Data)
		if err != nil {
			return nil, fmt.Errorf("vkbot: callback filter data: %w", err)
		}
		h.data = re
	}
	return h, nil
}

func (h *callbackHandler) check(cb *CallbackQuery, currentState string) bool {
	if cb == nil {
		return false
	}
	if len(h.states) > 0 && !contains(h.states, currentState) {
		return false
	}
	if h.match != nil && !h.match(cb) {
		return false
	}
	if h.data != nil {
		if cb.Data == "" || !h.data.MatchString(cb.Data) {
			return false
		}
	}
	return true
}

type middleware struct {
	fn          MiddlewareFunc
	updateTypes []string
}

func (m middleware) applies(updateType string) bool {
	return len(m.updateTypes) == 0 || contains(m.updateTypes, updateType)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
