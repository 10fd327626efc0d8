// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statetest

import (
	"context"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/stakevm/state"
)

var _ state.Revertible = (*InMemoryStore)(nil)

type op struct {
	key     string
	existed bool
	prev    []byte
}

// InMemoryStore is an unscoped, in-memory implementation of
// [state.Revertible] used by tests that do not care about key permissions.
type InMemoryStore struct {
	Storage map[string][]byte

	ops []op
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		Storage: make(map[string][]byte),
	}
}

func (i *InMemoryStore) GetValue(_ context.Context, key []byte) ([]byte, error) {
	val, ok := i.Storage[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return val, nil
}

func (i *InMemoryStore) Insert(_ context.Context, key []byte, value []byte) error {
	i.record(string(key))
	i.Storage[string(key)] = value
	return nil
}

func (i *InMemoryStore) Remove(_ context.Context, key []byte) error {
	i.record(string(key))
	delete(i.Storage, string(key))
	return nil
}

func (i *InMemoryStore) record(k string) {
	prev, ok := i.Storage[k]
	i.ops = append(i.ops, op{key: k, existed: ok, prev: prev})
}

func (i *InMemoryStore) OpIndex() int {
	return len(i.ops)
}

func (i *InMemoryStore) Rollback(_ context.Context, restorePoint int) {
	for j := len(i.ops) - 1; j >= restorePoint; j-- {
		o := i.ops[j]
		if o.existed {
			i.Storage[o.key] = o.prev
		} else {
			delete(i.Storage, o.key)
		}
	}
	i.ops = i.ops[:restorePoint]
}

// Snapshot returns a copy of the current storage for byte-for-byte
// comparisons.
func (i *InMemoryStore) Snapshot() map[string][]byte {
	out := make(map[string][]byte, len(i.Storage))
	for k, v := range i.Storage {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
