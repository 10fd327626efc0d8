// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"github.com/ava-labs/avalanchego/database"
)

var _ database.Batch = (*batch)(nil)

type op struct {
	key    []byte
	value  []byte
	delete bool
}

// batch buffers writes until [Write]. The ops are kept so the batch can be
// replayed into another writer.
type batch struct {
	db   *Database
	ops  []op
	size int
}

func (b *batch) Put(key []byte, value []byte) error {
	b.ops = append(b.ops, op{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, op{
		key:    append([]byte(nil), key...),
		delete: true,
	})
	b.size += len(key)
	return nil
}

func (b *batch) Size() int {
	return b.size
}

func (b *batch) Write() error {
	pb := b.db.db.NewBatch()
	defer pb.Close()

	for _, o := range b.ops {
		var err error
		if o.delete {
			err = pb.Delete(o.key, nil)
		} else {
			err = pb.Set(o.key, o.value, nil)
		}
		if err != nil {
			return err
		}
	}
	return pb.Commit(b.db.sync)
}

func (b *batch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}

func (b *batch) Replay(w database.KeyValueWriterDeleter) error {
	for _, o := range b.ops {
		var err error
		if o.delete {
			err = w.Delete(o.key)
		} else {
			err = w.Put(o.key, o.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *batch) Inner() database.Batch {
	return b
}
