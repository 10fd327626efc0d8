// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

import "github.com/ava-labs/avalanchego/utils/units"

const (
	ByteLen   = 1
	BoolLen   = 1
	IDLen     = 32
	Uint16Len = 2
	Uint32Len = 4
	Uint64Len = 8
	Int64Len  = 8
	MaxUint16 = ^uint16(0)
	MaxUint64 = ^uint64(0)

	MillisecondsPerSecond = 1000

	// NetworkSizeLimit bounds any single serialized item accepted from a
	// client (transactions, blocks).
	NetworkSizeLimit = 2 * units.MiB

	// Name is the service name used by the JSON-RPC and websocket APIs.
	Name = "stakevm"

	// HRP is the human readable prefix of bech32 addresses.
	HRP = "stake"
)

// Address type prefixes for accounts that are not controlled by a key.
const (
	CollectionID uint8 = 0x10
	TokenID      uint8 = 0x11
	LedgerID     uint8 = 0x12
)
