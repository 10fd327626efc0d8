// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"io"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/pebble"
	"github.com/ava-labs/stakevm/vm"
)

type Database interface {
	database.KeyValueReaderWriterDeleter
	database.Iteratee
	io.Closer
}

// Handler backs the stake-cli commands. Keys and known chains live in a
// local pebble database.
type Handler struct {
	db       Database
	registry chain.Registry
}

func New(dbPath string) (*Handler, error) {
	db, _, err := pebble.New(dbPath, pebble.NewDefaultConfig())
	if err != nil {
		return nil, err
	}
	return newHandler(db)
}

func newHandler(db Database) (*Handler, error) {
	registry, err := vm.NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Handler{db: db, registry: registry}, nil
}
