// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"crypto/rand"
	"fmt"
	"os"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/require"
)

const batchSize = 1_500_000

func randBytes() []byte {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

func newTestDatabase(t *testing.T, dir string) *Database {
	cfg := NewDefaultConfig()
	cfg.Sync = false
	db, _, err := New(dir, cfg)
	require.NoError(t, err)
	return db
}

func TestGetPutDelete(t *testing.T) {
	require := require.New(t)
	db := newTestDatabase(t, t.TempDir())
	defer func() {
		require.NoError(db.Close())
	}()

	_, err := db.Get([]byte("missing"))
	require.ErrorIs(err, database.ErrNotFound)
	has, err := db.Has([]byte("missing"))
	require.NoError(err)
	require.False(has)

	require.NoError(db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)
	has, err = db.Has([]byte("k"))
	require.NoError(err)
	require.True(has)

	require.NoError(db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(err, database.ErrNotFound)
}

func TestBatchWriteAndReplay(t *testing.T) {
	require := require.New(t)
	db := newTestDatabase(t, t.TempDir())
	defer func() {
		require.NoError(db.Close())
	}()
	require.NoError(db.Put([]byte("stale"), []byte("x")))

	b := db.NewBatch()
	require.NoError(b.Put([]byte("a"), []byte("1")))
	require.NoError(b.Put([]byte("b"), []byte("22")))
	require.NoError(b.Delete([]byte("stale")))
	require.Equal(len("a1b22stale"), b.Size())

	// Nothing is visible before Write
	_, err := db.Get([]byte("a"))
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(b.Write())
	v, err := db.Get([]byte("b"))
	require.NoError(err)
	require.Equal([]byte("22"), v)
	_, err = db.Get([]byte("stale"))
	require.ErrorIs(err, database.ErrNotFound)

	mem := memdb.New()
	require.NoError(mem.Put([]byte("stale"), []byte("x")))
	require.NoError(b.Replay(mem))
	v, err = mem.Get([]byte("a"))
	require.NoError(err)
	require.Equal([]byte("1"), v)
	has, err := mem.Has([]byte("stale"))
	require.NoError(err)
	require.False(has)

	b.Reset()
	require.Zero(b.Size())
}

func TestBatchCopiesInputs(t *testing.T) {
	require := require.New(t)
	db := newTestDatabase(t, t.TempDir())
	defer func() {
		require.NoError(db.Close())
	}()

	key := []byte("k")
	value := []byte("v")
	b := db.NewBatch()
	require.NoError(b.Put(key, value))
	value[0] = 'x'
	require.NoError(b.Write())

	v, err := db.Get(key)
	require.NoError(err)
	require.Equal([]byte("v"), v)
}

func TestReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	db := newTestDatabase(t, dir)
	require.NoError(db.Put([]byte("k"), []byte("v")))
	require.NoError(db.Close())
	require.NoError(db.Close())

	db = newTestDatabase(t, dir)
	v, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)
	require.NoError(db.Close())
}

func BenchmarkBatchInsertion(b *testing.B) {
	for _, sync := range []bool{false, true} {
		b.Run(fmt.Sprintf("sync=%t", sync), func(b *testing.B) {
			// Setup DB
			b.StopTimer()
			tdir := b.TempDir()
			cfg := NewDefaultConfig()
			cfg.Sync = sync
			db, _, err := New(tdir, cfg)
			if err != nil {
				b.Fatal(err)
			}

			// Setup keys
			keys := make([][]byte, batchSize)
			for i := 0; i < batchSize; i++ {
				keys[i] = randBytes()
			}

			b.StartTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				batch := db.NewBatch()
				for j := 0; j < batchSize; j++ {
					if err := batch.Put(keys[j], randBytes()); err != nil {
						b.Fatal(err)
					}
				}
				if err := batch.Write(); err != nil {
					b.Fatal(err)
				}
			}
			b.StopTimer()

			if err := db.Close(); err != nil {
				b.Fatal(err)
			}
			if err := os.RemoveAll(tdir); err != nil {
				b.Fatal(err)
			}
		})
	}
}

func TestIteratorWithPrefix(t *testing.T) {
	require := require.New(t)
	db := newTestDatabase(t, t.TempDir())
	defer func() {
		require.NoError(db.Close())
	}()

	for _, k := range []string{"a1", "b1", "b2", "b3", "c1"} {
		require.NoError(db.Put([]byte(k), []byte("v"+k)))
	}

	iter := db.NewIteratorWithPrefix([]byte("b"))
	keys := []string{}
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
		require.Equal("v"+string(iter.Key()), string(iter.Value()))
	}
	require.NoError(iter.Error())
	iter.Release()
	require.Equal([]string{"b1", "b2", "b3"}, keys)
	require.False(iter.Next())
	require.Nil(iter.Key())

	iter = db.NewIteratorWithStartAndPrefix([]byte("b2"), []byte("b"))
	keys = keys[:0]
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	iter.Release()
	require.Equal([]string{"b2", "b3"}, keys)
}

func TestPrefixToUpperBound(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{0x01, 0x03}, prefixToUpperBound([]byte{0x01, 0x02}))
	require.Equal([]byte{0x02}, prefixToUpperBound([]byte{0x01, 0xFF}))
	require.Nil(prefixToUpperBound([]byte{0xFF, 0xFF}))
	require.Nil(prefixToUpperBound(nil))
}
