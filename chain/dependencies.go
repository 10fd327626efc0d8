// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/token"
)

// Rules are the chain parameters and the contracts every action executes
// against. They are fixed by genesis.
type Rules interface {
	GetChainID() ids.ID
	// GetValidityWindow is the furthest (in milliseconds) a transaction's
	// expiry may be ahead of the block that includes it.
	GetValidityWindow() int64

	Minter() codec.Address
	Collection() *nft.Collection
	RewardToken() *token.Token
	Ledger() *staking.Ledger
}

type Action interface {
	codec.Typed

	// StateKeys is a full enumeration of all database keys that could be
	// touched during execution of an [Action]. Touching a key outside of this
	// set fails the transaction.
	StateKeys(actor codec.Address, r Rules) state.Keys

	// Execute runs the action against [mu]. Any error fails the transaction
	// and every write the action made is discarded.
	Execute(
		ctx context.Context,
		r Rules,
		mu state.Mutable,
		height uint64,
		timestamp int64,
		actor codec.Address,
		txID ids.ID,
	) (output []byte, err error)

	Size() int
	Marshal(p *codec.Packer)
}

type Auth interface {
	codec.Typed

	// Verify checks the signature over [msg]. It does not touch state.
	Verify(ctx context.Context, msg []byte) error

	// Actor is the account the action executes on behalf of.
	Actor() codec.Address

	Size() int
	Marshal(p *codec.Packer)
}

type AuthFactory interface {
	Sign(msg []byte) (Auth, error)
	Address() codec.Address
}

// AuthBatchVerifier collects signatures of a single auth type so they can be
// checked together.
type AuthBatchVerifier interface {
	Add(msg []byte, a Auth) func() error
	Done() []func() error
}

type AuthEngine interface {
	GetBatchVerifier(cores int, count int) AuthBatchVerifier
}
