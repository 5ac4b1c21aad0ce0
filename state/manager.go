package state

import "context"

// Manager wraps a Storage with merge semantics for payload data.
type Manager struct {
	storage Storage
}

// NewManager builds a manager over storage; nil falls back to memory.
func NewManager(storage Storage) *Manager {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Manager{storage: storage}
}

func (m *Manager) State(ctx context.Context, userID int64) (string, error) {
	return m.storage.State(ctx, userID)
}

func (m *Manager) SetState(ctx context.Context, userID int64, state string) error {
	return m.storage.SetState(ctx, userID, state)
}

func (m *Manager) Data(ctx context.Context, userID int64) (map[string]any, error) {
	return m.storage.Data(ctx, userID)
}

func (m *Manager) SetData(ctx context.Context, userID int64, data map[string]any) error {
	return m.storage.SetData(ctx, userID, data)
}

// UpdateData merges kv into the stored payload.
func (m *Manager) UpdateData(ctx context.Context, userID int64, kv map[string]any) error {
	data, err := m.storage.Data(ctx, userID)
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		data[k] = v
	}
	return m.storage.SetData(ctx, userID, data)
}

// Reset drops both state and payload for userID.
func (m *Manager) Reset(ctx context.Context, userID int64) error {
	return m.storage.Delete(ctx, userID)
}

// Context binds the manager to one user for handler-side convenience.
func (m *Manager) Context(userID int64) *Context {
	return &Context{manager: m, userID: userID}
}

// Context is a per-user view over the state manager.
type Context struct {
	manager *Manager
	userID  int64
}

func (c *Context) UserID() int64 { return c.userID }

// Current returns the user's state name, empty when unset.
func (c *Context) Current(ctx context.Context) (string, error) {
	return c.manager.State(ctx, c.userID)
}

func (c *Context) Set(ctx context.Context, state string) error {
	return c.manager.SetState(ctx, c.userID, state)
}

// Finish drops the user's state and payload, ending the dialog flow.
func (c *Context) Finish(ctx context.Context) error {
	return c.manager.Reset(ctx, c.userID)
}

func (c *Context) Data(ctx context.Context) (map[string]any, error) {
	return c.manager.Data(ctx, c.userID)
}

func (c *Context) Update(ctx context.Context, kv map[string]any) error {
	return c.manager.UpdateData(ctx, c.userID, kv)
}

func (c *Context) ClearData(ctx context.Context) error {
	return c.manager.SetData(ctx, c.userID, map[string]any{})
}

// Value reads one payload key; ok is false when absent.
func (c *Context) Value(ctx context.Context, key string) (any, bool, error) {
	data, err := c.manager.Data(ctx, c.userID)
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	return v, ok, nil
}
