// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/set"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/storage"
)

// BuildBlock packs pending transactions, in arrival order, into a block on
// top of the last accepted block and accepts it. Expired transactions and
// transactions that can no longer be included are dropped.
func (vm *VM) BuildBlock(ctx context.Context) (*chain.ExecutedBlock, error) {
	ctx, span := vm.tracer.Start(ctx, "VM.BuildBlock")
	defer span.End()

	start := time.Now()

	vm.acceptLock.Lock()
	defer vm.acceptLock.Unlock()

	parent := vm.lastAccepted
	timestamp := max(start.UnixMilli(), parent.Timestamp)
	if expired := vm.mempool.SetMinTimestamp(ctx, timestamp); len(expired) > 0 {
		vm.metrics.txsExpired.Add(float64(len(expired)))
		vm.log.Debug("removed expired txs", zap.Int("count", len(expired)))
	}

	var (
		txs  = make([]*chain.Transaction, 0, min(vm.config.MaxBlockTxs, vm.mempool.Len(ctx)))
		seen = set.NewSet[ids.ID](cap(txs))
	)
	for len(txs) < vm.config.MaxBlockTxs {
		tx, ok := vm.mempool.PopNext(ctx)
		if !ok {
			break
		}
		if seen.Contains(tx.ID()) {
			continue
		}
		if err := vm.processor.PreExecute(vm.db, tx, timestamp); err != nil {
			vm.metrics.txsDropped.Inc()
			vm.log.Debug("dropping tx",
				zap.Stringer("txID", tx.ID()),
				zap.Error(err),
			)
			continue
		}
		seen.Add(tx.ID())
		txs = append(txs, tx)
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len(ctx)))
	if len(txs) == 0 {
		return nil, ErrNoTxs
	}
	if len(txs) == vm.config.MaxBlockTxs {
		vm.metrics.buildCapped.Inc()
	}

	blk, err := chain.NewBlock(parent.ID(), parent.Height+1, timestamp, txs)
	if err != nil {
		return nil, err
	}
	vm.metrics.blockBuild.Observe(time.Since(start).Seconds())
	vm.log.Debug("built block",
		zap.Uint64("height", blk.Height),
		zap.Int("txs", len(txs)),
	)
	return vm.accept(ctx, blk)
}

// accept executes [blk] on top of the last accepted block and commits its
// state changes, transaction results and the block itself in one batch.
//
// Assumes [vm.acceptLock] is held.
func (vm *VM) accept(ctx context.Context, blk *chain.Block) (*chain.ExecutedBlock, error) {
	ctx, span := vm.tracer.Start(ctx, "VM.accept")
	defer span.End()

	start := time.Now()
	parent := chain.Parent{
		ID:        vm.lastAccepted.ID(),
		Height:    vm.lastAccepted.Height,
		Timestamp: vm.lastAccepted.Timestamp,
	}
	executed, ts, err := vm.processor.Execute(ctx, vm.db, parent, blk)
	if err != nil {
		vm.log.Error("unable to execute block",
			zap.Uint64("height", blk.Height),
			zap.Int("txs", len(blk.Txs)),
			zap.Error(err),
		)
		return nil, err
	}

	batch := vm.db.NewBatch()
	if err := ts.WriteChanges(ctx, batch); err != nil {
		return nil, err
	}
	for _, result := range executed.Results {
		if err := storage.StoreTransaction(
			batch,
			result.TxID,
			blk.Height,
			result.Success,
			result.Output,
			string(result.Error),
		); err != nil {
			return nil, err
		}
	}
	if err := writeBlock(batch, blk); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}
	vm.lastAccepted = blk

	vm.metrics.blocksAccepted.Inc()
	vm.metrics.txsAccepted.Add(float64(len(blk.Txs)))
	vm.metrics.lastAcceptedHgt.Set(float64(blk.Height))
	vm.metrics.blockAccept.Observe(time.Since(start).Seconds())
	vm.log.Info("accepted block",
		zap.Uint64("height", blk.Height),
		zap.Stringer("blkID", blk.ID()),
		zap.Int64("timestamp", blk.Timestamp),
		zap.Int("txs", len(blk.Txs)),
	)
	vm.publish(executed)
	return executed, nil
}
