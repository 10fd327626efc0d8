// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"slices"
	"strings"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/stakevm/state"
)

var _ state.Mutable = (*bufferedState)(nil)

// bufferedState reads through to [db] and keeps every write in memory until
// [bufferedState.WriteChanges].
type bufferedState struct {
	db      database.KeyValueReader
	changes map[string]maybe.Maybe[[]byte]
}

func newBufferedState(db database.KeyValueReader) *bufferedState {
	return &bufferedState{
		db:      db,
		changes: make(map[string]maybe.Maybe[[]byte]),
	}
}

func (s *bufferedState) GetValue(_ context.Context, key []byte) ([]byte, error) {
	if v, ok := s.changes[string(key)]; ok {
		if v.IsNothing() {
			return nil, database.ErrNotFound
		}
		return slices.Clone(v.Value()), nil
	}
	return s.db.Get(key)
}

func (s *bufferedState) Insert(_ context.Context, key []byte, value []byte) error {
	s.changes[string(key)] = maybe.Some(slices.Clone(value))
	return nil
}

func (s *bufferedState) Remove(_ context.Context, key []byte) error {
	s.changes[string(key)] = maybe.Nothing[[]byte]()
	return nil
}

func (s *bufferedState) WriteChanges(db database.KeyValueWriterDeleter) error {
	keys := maps.Keys(s.changes)
	slices.SortFunc(keys, strings.Compare)
	for _, k := range keys {
		v := s.changes[k]
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

// readState exposes [db] as [state.Immutable] for the read APIs.
type readState struct {
	db database.KeyValueReader
}

func (r readState) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return r.db.Get(key)
}
