// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/stakevm/state"
)

const defaultOps = 4

var _ state.Revertible = (*TStateView)(nil)

type op struct {
	k string

	// hadPending is true if [k] was already modified by this view before the
	// op, in which case [prev] holds that modification.
	hadPending bool
	prev       maybe.Maybe[[]byte]
}

type TStateView struct {
	ts                 *TState
	pendingChangedKeys map[string]maybe.Maybe[[]byte]

	// Ops is a record of all operations performed on [TState]. Tracking
	// operations allows for reverting state to a certain point-in-time.
	ops []*op

	scope        state.Keys
	scopeStorage map[string][]byte
}

// NewView returns a view over [ts] that may only touch the keys in [scope]
// with the granted permissions. [storage] holds the on-disk values of the
// scoped keys that are not already modified in [ts].
func (ts *TState) NewView(scope state.Keys, storage map[string][]byte) *TStateView {
	return &TStateView{
		ts:                 ts,
		pendingChangedKeys: make(map[string]maybe.Maybe[[]byte], len(scope)),

		ops: make([]*op, 0, defaultOps),

		scope:        scope,
		scopeStorage: storage,
	}
}

// Rollback restores the TStateView to the ts.op[restorePoint] operation.
func (ts *TStateView) Rollback(_ context.Context, restorePoint int) {
	for i := len(ts.ops) - 1; i >= restorePoint; i-- {
		op := ts.ops[i]
		if !op.hadPending {
			delete(ts.pendingChangedKeys, op.k)
			continue
		}
		ts.pendingChangedKeys[op.k] = op.prev
	}
	ts.ops = ts.ops[:restorePoint]
}

// OpIndex returns the number of operations done on ts.
func (ts *TStateView) OpIndex() int {
	return len(ts.ops)
}

func (ts *TStateView) checkScope(k string, require state.Permissions) bool {
	return ts.scope[k].Has(require)
}

// GetValue returns the value associated with [key]. If [key] is not readable
// in the view's scope an error is returned; a missing value returns
// [database.ErrNotFound].
func (ts *TStateView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	k := string(key)
	if !ts.checkScope(k, state.Read) {
		return nil, ErrInvalidKeyOrPermission
	}
	v, exists := ts.getValue(ctx, k)
	if !exists {
		return nil, database.ErrNotFound
	}
	return v, nil
}

func (ts *TStateView) getValue(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := ts.pendingChangedKeys[key]; ok {
		if v.IsNothing() {
			return nil, false
		}
		return v.Value(), true
	}
	if v, changed, exists := ts.ts.getChangedValue(ctx, key); changed {
		return v, exists
	}
	if v, ok := ts.scopeStorage[key]; ok {
		return v, true
	}
	return nil, false
}

// Insert sets or updates [key] to [value]. Creating a key requires the
// Allocate permission, updating an existing one requires Write.
//
// Any bytes passed into [Insert] will be consumed by [TState] and should
// not be modified/referenced after this call.
func (ts *TStateView) Insert(ctx context.Context, key []byte, value []byte) error {
	k := string(key)
	_, exists := ts.getValue(ctx, k)
	require := state.Write
	if !exists {
		require = state.Allocate
	}
	if !ts.checkScope(k, require) {
		return ErrInvalidKeyOrPermission
	}
	ts.record(k)
	ts.pendingChangedKeys[k] = maybe.Some(value)
	return nil
}

// Remove deletes [key]. Removing a key that does not exist is a no-op.
func (ts *TStateView) Remove(ctx context.Context, key []byte) error {
	k := string(key)
	if !ts.checkScope(k, state.Write) {
		return ErrInvalidKeyOrPermission
	}
	if _, exists := ts.getValue(ctx, k); !exists {
		return nil
	}
	ts.record(k)
	ts.pendingChangedKeys[k] = maybe.Nothing[[]byte]()
	return nil
}

func (ts *TStateView) record(k string) {
	prev, ok := ts.pendingChangedKeys[k]
	ts.ops = append(ts.ops, &op{
		k:          k,
		hadPending: ok,
		prev:       prev,
	})
}

// PendingChanges returns the number of keys modified by the view.
func (ts *TStateView) PendingChanges() int {
	return len(ts.pendingChangedKeys)
}

// Commit adds all pending changes to the parent [TState]. The view must not
// be used afterwards.
func (ts *TStateView) Commit() {
	ts.ts.l.Lock()
	defer ts.ts.l.Unlock()

	for k, v := range ts.pendingChangedKeys {
		ts.ts.changedKeys[k] = v
	}
	ts.ts.ops += len(ts.ops)
}
