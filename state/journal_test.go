// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/stretchr/testify/require"
)

type mapStore map[string][]byte

func (m mapStore) GetValue(_ context.Context, key []byte) ([]byte, error) {
	v, ok := m[string(key)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return v, nil
}

func (m mapStore) Insert(_ context.Context, key []byte, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m mapStore) Remove(_ context.Context, key []byte) error {
	delete(m, string(key))
	return nil
}

func TestJournalRollback(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	store := mapStore{"a": []byte("1")}

	j := AsRevertible(store)
	require.NoError(j.Insert(ctx, []byte("a"), []byte("2")))
	mid := j.OpIndex()
	require.NoError(j.Insert(ctx, []byte("b"), []byte("3")))
	require.NoError(j.Remove(ctx, []byte("a")))
	require.Equal(3, j.OpIndex())

	j.Rollback(ctx, mid)
	require.Equal(mapStore{"a": []byte("2")}, store)

	j.Rollback(ctx, 0)
	require.Equal(mapStore{"a": []byte("1")}, store)
	require.Zero(j.OpIndex())
}

type revertibleStore struct {
	mapStore
}

func (revertibleStore) OpIndex() int {
	return 7
}

func (revertibleStore) Rollback(context.Context, int) {}

func TestAsRevertibleKeepsRevertible(t *testing.T) {
	r := revertibleStore{mapStore{}}
	require.Equal(t, 7, AsRevertible(r).OpIndex())
}
