package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage keeps state in an embedded Badger database. Single-process
// persistence without an external Redis.
type BadgerStorage struct {
	db     *badger.DB
	prefix string
}

func NewBadgerStorage(db *badger.DB) *BadgerStorage {
	return &BadgerStorage{db: db, prefix: defaultKeyPrefix}
}

func (s *BadgerStorage) stateKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s:state:%d", s.prefix, userID))
}

func (s *BadgerStorage) dataKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s:data:%d", s.prefix, userID))
}

func (s *BadgerStorage) State(_ context.Context, userID int64) (string, error) {
	var out string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.stateKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: badger get: %w", err)
	}
	return out, nil
}

func (s *BadgerStorage) SetState(_ context.Context, userID int64, state string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.stateKey(userID), []byte(state))
	})
	if err != nil {
		return fmt.Errorf("state: badger set: %w", err)
	}
	return nil
}

func (s *BadgerStorage) Data(_ context.Context, userID int64) (map[string]any, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.dataKey(userID))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: badger get data: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("state: decode data: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (s *BadgerStorage) SetData(_ context.Context, userID int64, data map[string]any) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("state: encode data: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.dataKey(userID), blob)
	})
	if err != nil {
		return fmt.Errorf("state: badger set data: %w", err)
	}
	return nil
}

func (s *BadgerStorage) Delete(_ context.Context, userID int64) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(s.stateKey(userID)); err != nil {
			return err
		}
		return txn.Delete(s.dataKey(userID))
	})
	if err != nil {
		return fmt.Errorf("state: badger delete: %w", err)
	}
	return nil
}
