// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/storage"
)

// TxResult is the stored outcome of an accepted transaction.
type TxResult struct {
	Height  uint64
	Success bool
	Output  []byte
	Error   string
}

func (vm *VM) Logger() logging.Logger {
	return vm.log
}

func (vm *VM) Tracer() trace.Tracer {
	return vm.tracer
}

func (vm *VM) Genesis() *genesis.Genesis {
	return vm.genesis
}

func (vm *VM) Rules() *genesis.Rules {
	return vm.rules
}

func (vm *VM) Registry() chain.Registry {
	return vm.registry
}

func (vm *VM) ChainID() ids.ID {
	return vm.rules.GetChainID()
}

func (vm *VM) LastAccepted() *chain.Block {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.lastAccepted
}

// GetBlock returns the block accepted at [height].
func (vm *VM) GetBlock(height uint64) (*chain.Block, error) {
	b, ok, err := storage.GetBlock(vm.db, height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: height %d", ErrUnknownBlock, height)
	}
	return chain.UnmarshalBlock(b, vm.registry)
}

func (vm *VM) GetBlockByID(blkID ids.ID) (*chain.Block, error) {
	height, ok, err := storage.GetBlockHeight(vm.db, blkID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, blkID)
	}
	return vm.GetBlock(height)
}

// GetTransaction returns false if [txID] was never accepted.
func (vm *VM) GetTransaction(txID ids.ID) (*TxResult, bool, error) {
	found, height, success, output, errMsg, err := storage.GetTransaction(vm.db, txID)
	if err != nil || !found {
		return nil, false, err
	}
	return &TxResult{
		Height:  height,
		Success: success,
		Output:  output,
		Error:   errMsg,
	}, true, nil
}

func (vm *VM) Receipt(ctx context.Context, asset uint64) (staking.Receipt, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Ledger().Receipt(ctx, readState{vm.db}, asset)
}

// StakeEarned returns the reward [asset] has accrued as of the last accepted
// height, together with that height.
func (vm *VM) StakeEarned(ctx context.Context, asset uint64) (uint64, uint64, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	height := vm.lastAccepted.Height
	earned, err := vm.rules.Ledger().GetCurrentStakeEarned(ctx, readState{vm.db}, height, asset)
	return earned, height, err
}

func (vm *VM) RewardRate() uint64 {
	return vm.rules.Ledger().RewardRate()
}

func (vm *VM) Balance(ctx context.Context, addr codec.Address) (uint64, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.RewardToken().BalanceOf(ctx, readState{vm.db}, addr)
}

func (vm *VM) OwnerOf(ctx context.Context, asset uint64) (codec.Address, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Collection().OwnerOf(ctx, readState{vm.db}, asset)
}

func (vm *VM) GetApproved(ctx context.Context, asset uint64) (codec.Address, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Collection().GetApproved(ctx, readState{vm.db}, asset)
}

func (vm *VM) IsApprovedForAll(ctx context.Context, owner codec.Address, operator codec.Address) (bool, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Collection().IsApprovedForAll(ctx, readState{vm.db}, owner, operator)
}

func (vm *VM) Metadata(ctx context.Context, asset uint64) ([]byte, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Collection().Metadata(ctx, readState{vm.db}, asset)
}

// NextAssetID is the id the next [actions.MintAsset] must carry.
func (vm *VM) NextAssetID(ctx context.Context) (uint64, error) {
	vm.acceptLock.RLock()
	defer vm.acceptLock.RUnlock()

	return vm.rules.Collection().NextAsset(ctx, readState{vm.db})
}
