// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package staking

import (
	"context"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/state"
)

//go:generate go run go.uber.org/mock/mockgen -package=staking -destination=mock_dependencies.go . Custody,Payer

// Custody moves the staked assets in and out of the ledger.
type Custody interface {
	TransferFrom(
		ctx context.Context,
		mu state.Mutable,
		operator codec.Address,
		from codec.Address,
		to codec.Address,
		asset uint64,
	) error
	OwnerOf(ctx context.Context, im state.Immutable, asset uint64) (codec.Address, error)
}

// Payer pays rewards out of the ledger's balance.
type Payer interface {
	Transfer(
		ctx context.Context,
		mu state.Mutable,
		from codec.Address,
		to codec.Address,
		amount uint64,
	) error
	BalanceOf(ctx context.Context, im state.Immutable, who codec.Address) (uint64, error)
}
