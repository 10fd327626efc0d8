// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/vm"
)

var _ VM = (*vm.VM)(nil)

type VM interface {
	Logger() logging.Logger
	Tracer() trace.Tracer
	Genesis() *genesis.Genesis
	ChainID() ids.ID
	Registry() chain.Registry
	LastAccepted() *chain.Block
	GetBlock(height uint64) (*chain.Block, error)
	GetTransaction(txID ids.ID) (*vm.TxResult, bool, error)
	Submit(ctx context.Context, txs []*chain.Transaction) []error
	SubscribeBlocks() (<-chan *chain.ExecutedBlock, func())

	Receipt(ctx context.Context, asset uint64) (staking.Receipt, error)
	StakeEarned(ctx context.Context, asset uint64) (uint64, uint64, error)
	RewardRate() uint64
	Balance(ctx context.Context, addr codec.Address) (uint64, error)
	OwnerOf(ctx context.Context, asset uint64) (codec.Address, error)
	GetApproved(ctx context.Context, asset uint64) (codec.Address, error)
	IsApprovedForAll(ctx context.Context, owner codec.Address, operator codec.Address) (bool, error)
	Metadata(ctx context.Context, asset uint64) ([]byte, error)
	NextAssetID(ctx context.Context) (uint64, error)
}
