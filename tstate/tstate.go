// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// TState defines a struct for storing temporary state. Views created from a
// TState accumulate changes locally and only become visible to other views
// once they are committed.
type TState struct {
	l           sync.RWMutex
	ops         int
	changedKeys map[string]maybe.Maybe[[]byte]
}

// New returns a new instance of TState.
//
// [changedSize] is an estimate of the number of keys that will be changed and is
// used to size the change map.
func New(changedSize int) *TState {
	return &TState{
		changedKeys: make(map[string]maybe.Maybe[[]byte], changedSize),
	}
}

func (ts *TState) getChangedValue(_ context.Context, key string) ([]byte, bool, bool) {
	ts.l.RLock()
	defer ts.l.RUnlock()

	if v, ok := ts.changedKeys[key]; ok {
		if v.IsNothing() {
			return nil, true, false
		}
		return v.Value(), true, true
	}
	return nil, false, false
}

// PendingChanges returns the number of changed keys (not ops).
func (ts *TState) PendingChanges() int {
	ts.l.RLock()
	defer ts.l.RUnlock()

	return len(ts.changedKeys)
}

// OpIndex returns the number of operations committed to [TState].
func (ts *TState) OpIndex() int {
	ts.l.RLock()
	defer ts.l.RUnlock()

	return ts.ops
}

// WriteChanges writes every change in [TState] to [db] in key order.
//
// Once [WriteChanges] is called, [TState] should not be used again.
func (ts *TState) WriteChanges(_ context.Context, db database.KeyValueWriterDeleter) error {
	ts.l.Lock()
	defer ts.l.Unlock()

	keys := maps.Keys(ts.changedKeys)
	slices.SortFunc(keys, strings.Compare)
	for _, k := range keys {
		v := ts.changedKeys[k]
		if v.IsNothing() {
			if err := db.Delete([]byte(k)); err != nil {
				return err
			}
			continue
		}
		if err := db.Put([]byte(k), v.Value()); err != nil {
			return err
		}
	}
	return nil
}
