// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

// list is a doubly linked list of pending items in arrival order. Unlike
// container/list it is typed and lets the mempool remove arbitrary
// elements in O(1).
type list[T Item] struct {
	root element[T]
	size int
}

type element[T Item] struct {
	prev *element[T]
	next *element[T]
	list *list[T]

	value T
}

func newList[T Item]() *list[T] {
	l := &list[T]{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

func (l *list[T]) first() *element[T] {
	if l.size == 0 {
		return nil
	}
	return l.root.next
}

func (l *list[T]) pushBack(v T) *element[T] {
	e := &element[T]{value: v, list: l}
	at := l.root.prev
	e.prev = at
	e.next = at.next
	at.next = e
	e.next.prev = e
	l.size++
	return e
}

func (l *list[T]) remove(e *element[T]) {
	if e.list != l {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.size--
}
