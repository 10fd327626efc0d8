// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
)

var _ Revertible = (*journal)(nil)

type entry struct {
	key     []byte
	existed bool
	prev    []byte
}

// journal records the value of every key before it is modified so that
// writes made through a plain [Mutable] can be undone.
type journal struct {
	Mutable

	entries []entry
}

// AsRevertible returns [mu] if it already supports rollback, otherwise it
// wraps [mu] in a journal that restores overwritten values on [Rollback].
func AsRevertible(mu Mutable) Revertible {
	if r, ok := mu.(Revertible); ok {
		return r
	}
	return &journal{Mutable: mu}
}

func (j *journal) record(ctx context.Context, key []byte) error {
	prev, err := j.Mutable.GetValue(ctx, key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		j.entries = append(j.entries, entry{key: key})
		return nil
	case err != nil:
		return err
	default:
		j.entries = append(j.entries, entry{key: key, existed: true, prev: prev})
		return nil
	}
}

func (j *journal) Insert(ctx context.Context, key []byte, value []byte) error {
	if err := j.record(ctx, key); err != nil {
		return err
	}
	return j.Mutable.Insert(ctx, key, value)
}

func (j *journal) Remove(ctx context.Context, key []byte) error {
	if err := j.record(ctx, key); err != nil {
		return err
	}
	return j.Mutable.Remove(ctx, key)
}

func (j *journal) OpIndex() int {
	return len(j.entries)
}

// Rollback rewrites every key modified after [restorePoint] to the value it
// held before. Errors from the underlying store are ignored because the keys
// were already writable when they were first modified.
func (j *journal) Rollback(ctx context.Context, restorePoint int) {
	for i := len(j.entries) - 1; i >= restorePoint; i-- {
		e := j.entries[i]
		if e.existed {
			_ = j.Mutable.Insert(ctx, e.key, e.prev)
		} else {
			_ = j.Mutable.Remove(ctx, e.key)
		}
	}
	j.entries = j.entries[:restorePoint]
}
