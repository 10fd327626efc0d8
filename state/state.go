// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "context"

type Immutable interface {
	GetValue(ctx context.Context, key []byte) (value []byte, err error)
}

type Mutable interface {
	Immutable

	Insert(ctx context.Context, key []byte, value []byte) error
	Remove(ctx context.Context, key []byte) error
}

// Revertible is a [Mutable] that records every write so a caller can restore
// the state it observed at an earlier point.
type Revertible interface {
	Mutable

	// OpIndex returns a restore point for [Rollback].
	OpIndex() int
	Rollback(ctx context.Context, restorePoint int)
}
