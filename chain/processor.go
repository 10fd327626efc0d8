// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/neilotoole/errgroup"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/storage"
	"github.com/ava-labs/stakevm/tstate"
)

// keysPerTx sizes the change map of a block's TState.
const keysPerTx = 8

// Parent is the last accepted block a new block must extend.
type Parent struct {
	ID        ids.ID
	Height    uint64
	Timestamp int64
}

// Processor verifies blocks and executes their transactions.
type Processor struct {
	log     logging.Logger
	tracer  trace.Tracer
	rules   Rules
	engines map[uint8]AuthEngine
	cores   int
	metrics *chainMetrics
}

func NewProcessor(
	log logging.Logger,
	tracer trace.Tracer,
	rules Rules,
	engines map[uint8]AuthEngine,
	cores int,
	registerer prometheus.Registerer,
) (*Processor, error) {
	metrics, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	if cores < 1 {
		cores = 1
	}
	return &Processor{
		log:     log,
		tracer:  tracer,
		rules:   rules,
		engines: engines,
		cores:   cores,
		metrics: metrics,
	}, nil
}

func (p *Processor) Rules() Rules {
	return p.rules
}

// PreExecute checks whether [tx] could be included in a block built at
// [timestamp] on top of [db]. It does not verify the signature.
func (p *Processor) PreExecute(db database.KeyValueReader, tx *Transaction, timestamp int64) error {
	if err := tx.Base.Execute(p.rules, timestamp); err != nil {
		return err
	}
	repeat, err := storage.HasTransaction(db, tx.ID())
	if err != nil {
		return err
	}
	if repeat {
		return fmt.Errorf("%w: %s", ErrDuplicateTx, tx.ID())
	}
	return nil
}

// VerifySignatures checks the auth of every transaction in [txs], batching
// auths whose engine supports it and spreading the work over [cores]
// goroutines.
func (p *Processor) VerifySignatures(ctx context.Context, txs []*Transaction) error {
	ctx, span := p.tracer.Start(ctx, "Processor.VerifySignatures")
	defer span.End()

	start := time.Now()
	defer func() {
		p.metrics.waitSignatures.Observe(time.Since(start).Seconds())
	}()

	counts := make(map[uint8]int)
	for _, tx := range txs {
		counts[tx.Auth.GetTypeID()]++
	}
	batches := make(map[uint8]AuthBatchVerifier, len(counts))
	for typeID, count := range counts {
		if engine, ok := p.engines[typeID]; ok {
			batches[typeID] = engine.GetBatchVerifier(p.cores, count)
		}
	}

	g, _ := errgroup.WithContextN(ctx, p.cores, len(txs))
	for _, tx := range txs {
		job, err := tx.AuthAsync(batches[tx.Auth.GetTypeID()])
		if err != nil {
			return err
		}
		if job != nil {
			g.Go(job)
		}
	}
	for _, bv := range batches {
		for _, job := range bv.Done() {
			g.Go(job)
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return nil
}

// Execute verifies that [blk] extends [parent] and runs each of its
// transactions against [db]. A transaction whose action fails is recorded
// as failed and none of its writes are kept. Nothing is written to [db];
// the returned [tstate.TState] holds every change the block makes.
func (p *Processor) Execute(
	ctx context.Context,
	db database.KeyValueReader,
	parent Parent,
	blk *Block,
) (*ExecutedBlock, *tstate.TState, error) {
	ctx, span := p.tracer.Start(ctx, "Processor.Execute")
	defer span.End()

	start := time.Now()
	switch {
	case blk.Parent != parent.ID:
		return nil, nil, fmt.Errorf("%w: %s != %s", ErrInvalidParent, blk.Parent, parent.ID)
	case blk.Height != parent.Height+1:
		return nil, nil, fmt.Errorf("%w: %d != %d", ErrInvalidHeight, blk.Height, parent.Height+1)
	case blk.Timestamp < parent.Timestamp:
		return nil, nil, fmt.Errorf("%w: %d < %d", ErrBlockTimestamp, blk.Timestamp, parent.Timestamp)
	case len(blk.Txs) > MaxBlockTxs:
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrTooManyTxs, len(blk.Txs), MaxBlockTxs)
	}

	seen := set.NewSet[ids.ID](len(blk.Txs))
	for _, tx := range blk.Txs {
		if seen.Contains(tx.ID()) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateTx, tx.ID())
		}
		seen.Add(tx.ID())
		if err := p.PreExecute(db, tx, blk.Timestamp); err != nil {
			return nil, nil, err
		}
	}
	if err := p.VerifySignatures(ctx, blk.Txs); err != nil {
		return nil, nil, err
	}

	ts := tstate.New(len(blk.Txs) * keysPerTx)
	results := make([]*Result, 0, len(blk.Txs))
	for _, tx := range blk.Txs {
		result, err := p.executeTx(ctx, db, ts, blk, tx)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, result)
	}

	p.metrics.blocksProcessed.Inc()
	p.metrics.stateChanges.Add(float64(ts.PendingChanges()))
	p.metrics.stateOperations.Add(float64(ts.OpIndex()))
	p.metrics.executeBlock.Observe(time.Since(start).Seconds())
	return &ExecutedBlock{Block: blk, Results: results}, ts, nil
}

func (p *Processor) executeTx(
	ctx context.Context,
	db database.KeyValueReader,
	ts *tstate.TState,
	blk *Block,
	tx *Transaction,
) (*Result, error) {
	stateKeys := tx.StateKeys(p.rules)
	scopeStorage := make(map[string][]byte, len(stateKeys))
	for k := range stateKeys {
		v, err := db.Get([]byte(k))
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		scopeStorage[k] = v
	}

	view := ts.NewView(stateKeys, scopeStorage)
	output, err := tx.Action.Execute(ctx, p.rules, view, blk.Height, blk.Timestamp, tx.Auth.Actor(), tx.ID())
	result := &Result{TxID: tx.ID(), Success: err == nil}
	if err != nil {
		view.Rollback(ctx, 0)
		result.Error = []byte(err.Error())
		p.metrics.txsFailed.Inc()
		p.log.Debug("transaction failed",
			zap.Stringer("txID", tx.ID()),
			zap.Uint8("action", tx.Action.GetTypeID()),
			zap.Error(err),
		)
	} else {
		result.Output = output
		p.metrics.txsSucceeded.Inc()
	}
	view.Commit()
	return result, nil
}
