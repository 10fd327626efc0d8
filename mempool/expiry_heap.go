// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"container/heap"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

var _ heap.Interface = (*expiryHeap[Item])(nil)

type expiryEntry[T Item] struct {
	elem   *element[T]
	expiry int64

	index int
}

// expiryHeap tracks pending items by expiry, earliest first.
type expiryHeap[T Item] struct {
	items  []*expiryEntry[T]
	lookup map[ids.ID]*expiryEntry[T]
}

func newExpiryHeap[T Item](items int) *expiryHeap[T] {
	return &expiryHeap[T]{
		items:  make([]*expiryEntry[T], 0, items),
		lookup: make(map[ids.ID]*expiryEntry[T], items),
	}
}

func (eh expiryHeap[T]) Len() int { return len(eh.items) }

func (eh expiryHeap[T]) Less(i, j int) bool {
	return eh.items[i].expiry < eh.items[j].expiry
}

func (eh expiryHeap[T]) Swap(i, j int) {
	eh.items[i], eh.items[j] = eh.items[j], eh.items[i]
	eh.items[i].index = i
	eh.items[j].index = j
}

func (eh *expiryHeap[T]) Push(x interface{}) {
	entry, ok := x.(*expiryEntry[T])
	if !ok {
		panic(fmt.Errorf("unexpected %T, expected *expiryEntry", x))
	}
	id := entry.elem.value.ID()
	if _, ok := eh.lookup[id]; ok {
		return
	}
	entry.index = len(eh.items)
	eh.items = append(eh.items, entry)
	eh.lookup[id] = entry
}

func (eh *expiryHeap[T]) Pop() interface{} {
	n := len(eh.items)
	entry := eh.items[n-1]
	eh.items[n-1] = nil // avoid memory leak
	eh.items = eh.items[0 : n-1]
	delete(eh.lookup, entry.elem.value.ID())
	return entry
}

func (eh *expiryHeap[T]) add(e *element[T]) {
	heap.Push(eh, &expiryEntry[T]{elem: e, expiry: e.value.Expiry()})
}

func (eh *expiryHeap[T]) remove(id ids.ID) {
	entry, ok := eh.lookup[id]
	if !ok {
		return
	}
	heap.Remove(eh, entry.index)
}

// first returns the entry expiring soonest.
func (eh *expiryHeap[T]) first() (*expiryEntry[T], bool) {
	if len(eh.items) == 0 {
		return nil, false
	}
	return eh.items[0], true
}
