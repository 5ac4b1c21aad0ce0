package api

import (
	"errors"
	"fmt"
)

var (
	ErrTokenRequired  = errors.New("api: access token required")
	ErrEmptyResponse  = errors.New("api: empty response payload")
	ErrNoGroups       = errors.New("api: token resolves to no groups; community token required")
	ErrUploadRejected = errors.New("api: upload server rejected file")
)

// Well-known VK error codes the framework reacts to.
const (
	ErrCodeUnknown      = 1
	ErrCodeAuthFailed   = 5
	ErrCodeTooMany      = 6
	ErrCodePermission   = 7
	ErrCodeFlood        = 9
	ErrCodeInternal     = 10
	ErrCodeCaptcha      = 14
	ErrCodeAccessDenied = 15
)

// RequestParam echoes one request parameter back in an API error.
type RequestParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error is the VK API error envelope.
type Error struct {
	Code    int            `json:"error_code"`
	Message string         `json:"error_msg"`
	Params  []RequestParam `json:"request_params"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("vk api: [%d] %s", e.Code, e.Message)
}

// Is reports code equality so callers can match against a prototype error.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}
