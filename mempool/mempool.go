// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/codec"
)

const maxPrealloc = 4_096

type Item interface {
	ID() ids.ID
	Sponsor() codec.Address
	Expiry() int64
	Size() int
}

// Mempool holds pending items in arrival order. Items are handed out
// first-in first-out and dropped once they expire.
type Mempool[T Item] struct {
	log logging.Logger

	mu sync.RWMutex

	pendingSize int // bytes

	maxSize        int
	maxSponsorSize int // Maximum items allowed by a single sponsor

	queue  *list[T]
	eh     *expiryHeap[T]
	lookup map[ids.ID]*element[T]

	// owned tracks the number of items of each sponsor
	owned map[codec.Address]int

	// sponsors that are exempt from [maxSponsorSize]
	exemptSponsors set.Set[codec.Address]
}

// New creates a new [Mempool]. [maxSize] must be > 0 or else the
// implementation may panic.
func New[T Item](
	log logging.Logger,
	maxSize int,
	maxSponsorSize int,
	exemptSponsors []codec.Address,
) *Mempool[T] {
	m := &Mempool[T]{
		log: log,

		maxSize:        maxSize,
		maxSponsorSize: maxSponsorSize,

		queue:  newList[T](),
		eh:     newExpiryHeap[T](min(maxSize, maxPrealloc)),
		lookup: make(map[ids.ID]*element[T], min(maxSize, maxPrealloc)),

		owned:          make(map[codec.Address]int),
		exemptSponsors: set.Set[codec.Address]{},
	}
	m.exemptSponsors.Add(exemptSponsors...)
	return m
}

// Has returns if [itemID] is pending.
func (m *Mempool[T]) Has(_ context.Context, itemID ids.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.lookup[itemID]
	return ok
}

// Add pushes all new items from [items] to the back of the queue. An item is
// dropped when it is already pending, when its sponsor is not exempt and
// already has [maxSponsorSize] items pending, or when the mempool is full.
func (m *Mempool[T]) Add(_ context.Context, items []T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		sponsor := item.Sponsor()

		// Ensure no duplicate
		if _, ok := m.lookup[item.ID()]; ok {
			continue
		}
		if !m.exemptSponsors.Contains(sponsor) && m.owned[sponsor] >= m.maxSponsorSize {
			m.log.Debug("dropping item from sponsor at limit",
				zap.Stringer("itemID", item.ID()),
				zap.Stringer("sponsor", sponsor),
			)
			continue
		}
		if len(m.lookup) >= m.maxSize {
			m.log.Debug("dropping item from full mempool",
				zap.Stringer("itemID", item.ID()),
			)
			continue
		}
		e := m.queue.pushBack(item)
		m.eh.add(e)
		m.lookup[item.ID()] = e
		m.owned[sponsor]++
		m.pendingSize += item.Size()
	}
}

// PeekNext returns the oldest pending item.
func (m *Mempool[T]) PeekNext(context.Context) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e := m.queue.first()
	if e == nil {
		return *new(T), false
	}
	return e.value, true
}

// PopNext removes and returns the oldest pending item.
func (m *Mempool[T]) PopNext(context.Context) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.queue.first()
	if e == nil {
		return *new(T), false
	}
	m.remove(e)
	return e.value, true
}

// Remove removes [items] from the mempool. Items that are not pending are
// ignored.
func (m *Mempool[T]) Remove(_ context.Context, items []T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range items {
		e, ok := m.lookup[item.ID()]
		if !ok {
			continue
		}
		m.remove(e)
	}
}

func (m *Mempool[T]) remove(e *element[T]) {
	item := e.value
	m.queue.remove(e)
	m.eh.remove(item.ID())
	delete(m.lookup, item.ID())
	m.pendingSize -= item.Size()

	sponsor := item.Sponsor()
	m.owned[sponsor]--
	if m.owned[sponsor] <= 0 {
		delete(m.owned, sponsor)
	}
}

// Len returns the number of pending items.
func (m *Mempool[T]) Len(context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.queue.size
}

// Size returns the total size of the pending items.
func (m *Mempool[T]) Size(context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.pendingSize
}

// SetMinTimestamp removes all items with a lower expiry than [t] and returns
// them.
func (m *Mempool[T]) SetMinTimestamp(_ context.Context, t int64) []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []T
	for {
		entry, ok := m.eh.first()
		if !ok || entry.expiry >= t {
			break
		}
		removed = append(removed, entry.elem.value)
		m.remove(entry.elem)
	}
	return removed
}
