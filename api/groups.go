package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Group is the subset of groups.getById output the framework needs.
type Group struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// GroupsGetByID resolves the community the token belongs to.
func (c *Client) GroupsGetByID(ctx context.Context) (Group, error) {
	raw, err := c.Call(ctx, "groups.getById", Params{})
	if err != nil {
		return Group{}, err
	}

	// Older API versions answer with a bare list, 5.131+ wraps it.
	var list []Group
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		var wrapped struct {
			Groups []Group `json:"groups"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return Group{}, fmt.Errorf("api: decode groups.getById: %w", err)
		}
		list = wrapped.Groups
	}
	if len(list) == 0 {
		return Group{}, ErrNoGroups
	}
	return list[0], nil
}

// UsersGet returns the raw profile of the token owner (first result).
func (c *Client) UsersGet(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.Call(ctx, "users.get", Params{})
	if err != nil {
		return nil, err
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("api: decode users.get: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrEmptyResponse
	}
	return list[0], nil
}
