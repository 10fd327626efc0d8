// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/state"
)

var (
	testKey  = []byte("key")
	testVal  = []byte("value")
	otherKey = []byte("other")
)

func TestGetValue(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	ts := New(10)

	tsv := ts.NewView(state.Keys{string(testKey): state.Read}, map[string][]byte{string(testKey): testVal})
	val, err := tsv.GetValue(ctx, testKey)
	require.NoError(err)
	require.Equal(testVal, val)

	_, err = tsv.GetValue(ctx, otherKey)
	require.ErrorIs(err, ErrInvalidKeyOrPermission)
}

func TestGetValueNotFound(t *testing.T) {
	require := require.New(t)
	ts := New(10)

	tsv := ts.NewView(state.Keys{string(testKey): state.Read}, map[string][]byte{})
	_, err := tsv.GetValue(context.TODO(), testKey)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestInsertPermissions(t *testing.T) {
	tests := map[string]struct {
		permission state.Permissions
		storage    map[string][]byte
		err        error
	}{
		"allocate new key": {
			permission: state.Allocate,
			storage:    map[string][]byte{},
		},
		"write cannot allocate": {
			permission: state.Write,
			storage:    map[string][]byte{},
			err:        ErrInvalidKeyOrPermission,
		},
		"write existing key": {
			permission: state.Write,
			storage:    map[string][]byte{string(testKey): testVal},
		},
		"allocate cannot overwrite": {
			permission: state.Allocate,
			storage:    map[string][]byte{string(testKey): testVal},
			err:        ErrInvalidKeyOrPermission,
		},
		"read only": {
			permission: state.Read,
			storage:    map[string][]byte{},
			err:        ErrInvalidKeyOrPermission,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			tsv := New(1).NewView(state.Keys{string(testKey): tt.permission}, tt.storage)
			err := tsv.Insert(context.TODO(), testKey, []byte("new"))
			require.ErrorIs(err, tt.err)
			if tt.err != nil {
				require.Zero(tsv.OpIndex())
			}
		})
	}
}

func TestRemove(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	tsv := New(1).NewView(state.Keys{string(testKey): state.All}, map[string][]byte{string(testKey): testVal})

	require.NoError(tsv.Remove(ctx, testKey))
	_, err := tsv.GetValue(ctx, testKey)
	require.ErrorIs(err, database.ErrNotFound)
	require.Equal(1, tsv.OpIndex())

	// removing a missing key records nothing
	require.NoError(tsv.Remove(ctx, testKey))
	require.Equal(1, tsv.OpIndex())
}

func TestRollback(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	scope := state.Keys{string(testKey): state.All, string(otherKey): state.All}
	tsv := New(2).NewView(scope, map[string][]byte{string(testKey): testVal})

	require.NoError(tsv.Insert(ctx, testKey, []byte("first")))
	restore := tsv.OpIndex()

	require.NoError(tsv.Insert(ctx, testKey, []byte("second")))
	require.NoError(tsv.Insert(ctx, otherKey, []byte("created")))
	require.NoError(tsv.Remove(ctx, testKey))
	require.Equal(4, tsv.OpIndex())

	tsv.Rollback(ctx, restore)
	require.Equal(restore, tsv.OpIndex())
	v, err := tsv.GetValue(ctx, testKey)
	require.NoError(err)
	require.Equal([]byte("first"), v)
	_, err = tsv.GetValue(ctx, otherKey)
	require.ErrorIs(err, database.ErrNotFound)

	tsv.Rollback(ctx, 0)
	v, err = tsv.GetValue(ctx, testKey)
	require.NoError(err)
	require.Equal(testVal, v)
	require.Zero(tsv.PendingChanges())
}

func TestCommitVisibleToNewViews(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	ts := New(2)
	scope := state.Keys{string(testKey): state.All}

	tsv := ts.NewView(scope, map[string][]byte{})
	require.NoError(tsv.Insert(ctx, testKey, testVal))
	tsv.Commit()
	require.Equal(1, ts.PendingChanges())
	require.Equal(1, ts.OpIndex())

	// stale storage is shadowed by the committed change
	next := ts.NewView(scope, map[string][]byte{string(testKey): []byte("stale")})
	v, err := next.GetValue(ctx, testKey)
	require.NoError(err)
	require.Equal(testVal, v)

	require.NoError(next.Remove(ctx, testKey))
	next.Commit()
	last := ts.NewView(scope, map[string][]byte{string(testKey): []byte("stale")})
	_, err = last.GetValue(ctx, testKey)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestWriteChanges(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	db := memdb.New()
	require.NoError(db.Put(otherKey, []byte("old")))

	ts := New(2)
	scope := state.Keys{string(testKey): state.All, string(otherKey): state.All}
	tsv := ts.NewView(scope, map[string][]byte{string(otherKey): []byte("old")})
	require.NoError(tsv.Insert(ctx, testKey, testVal))
	require.NoError(tsv.Remove(ctx, otherKey))
	tsv.Commit()

	require.NoError(ts.WriteChanges(ctx, db))
	v, err := db.Get(testKey)
	require.NoError(err)
	require.Equal(testVal, v)
	has, err := db.Has(otherKey)
	require.NoError(err)
	require.False(has)
}
