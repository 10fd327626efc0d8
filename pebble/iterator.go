// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"bytes"
	"slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
)

var (
	_ database.Iteratee = (*Database)(nil)
	_ database.Iterator = (*iterator)(nil)
)

type iterator struct {
	iter *pebble.Iterator

	initialized bool
	closed      bool
	err         error

	hasNext bool
	nextKey []byte
	nextVal []byte
}

func (d *Database) NewIterator() database.Iterator {
	return d.NewIteratorWithStartAndPrefix(nil, nil)
}

func (d *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return d.NewIteratorWithStartAndPrefix(start, nil)
}

func (d *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return d.NewIteratorWithStartAndPrefix(nil, prefix)
}

// NewIteratorWithStartAndPrefix iterates over the keys with [prefix] that are
// >= [start] in lexicographic order.
func (d *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	it, err := d.db.NewIter(keyRange(start, prefix))
	if err != nil {
		return &iterator{closed: true, err: err}
	}
	return &iterator{iter: it}
}

func (it *iterator) Next() bool {
	switch {
	case it.err != nil || it.closed:
		it.hasNext = false
		return false
	case !it.initialized:
		it.hasNext = it.iter.First()
		it.initialized = true
	default:
		it.hasNext = it.iter.Next()
	}
	if !it.hasNext {
		return false
	}

	it.nextKey = it.iter.Key()
	var err error
	it.nextVal, err = it.iter.ValueAndErr()
	if err != nil {
		it.hasNext = false
		it.err = err
		return false
	}
	return true
}

func (it *iterator) Error() error {
	if it.err != nil || it.closed {
		return it.err
	}
	return it.iter.Error()
}

func (it *iterator) Key() []byte {
	if !it.hasNext {
		return nil
	}
	return slices.Clone(it.nextKey)
}

func (it *iterator) Value() []byte {
	if !it.hasNext {
		return nil
	}
	return slices.Clone(it.nextVal)
}

func (it *iterator) Release() {
	if it.closed {
		return
	}
	it.closed = true
	if err := it.iter.Close(); err != nil && it.err == nil {
		it.err = err
	}
}

func keyRange(start, prefix []byte) *pebble.IterOptions {
	opt := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixToUpperBound(prefix),
	}
	if bytes.Compare(start, prefix) == 1 {
		opt.LowerBound = start
	}
	return opt
}

// prefixToUpperBound returns the smallest key larger than every key with
// [prefix], or nil if there is none.
func prefixToUpperBound(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			upperBound := make([]byte, i+1)
			copy(upperBound, prefix)
			upperBound[i]++
			return upperBound
		}
	}
	return nil
}
