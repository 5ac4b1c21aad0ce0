package vkbot

import (
	"fmt"
	"strings"
)

// User is a VK profile as returned by users.get.
type User struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	IsClosed        bool   `json:"is_closed"`
	CanAccessClosed bool   `json:"can_access_closed"`
	Photo100        string `json:"photo_100,omitempty"`
	Online          int    `json:"online,omitempty"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Mention renders the [id123|Name] markup VK expands into a profile link.
func (u User) Mention() string {
	return fmt.Sprintf("[id%d|%s]", u.ID, u.FirstName)
}
