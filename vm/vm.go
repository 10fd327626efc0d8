// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/config"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/mempool"
	"github.com/ava-labs/stakevm/pebble"
	"github.com/ava-labs/stakevm/storage"

	stracer "github.com/ava-labs/stakevm/trace"
)

// Database is the store the VM keeps its state, blocks and transaction
// results in.
type Database interface {
	database.KeyValueReaderWriterDeleter
	database.Batcher
	io.Closer
}

// OpenDatabase opens pebble in [cfg.DatabaseDir] or, when it is empty, an
// in-memory database. The returned gatherer holds the database metrics.
func OpenDatabase(cfg config.Config) (Database, prometheus.Gatherer, error) {
	if len(cfg.DatabaseDir) == 0 {
		return memdb.New(), prometheus.NewRegistry(), nil
	}
	db, registry, err := pebble.New(cfg.DatabaseDir, cfg.Pebble)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open database at %s: %w", cfg.DatabaseDir, err)
	}
	return db, registry, nil
}

type VM struct {
	log      logging.Logger
	tracer   trace.Tracer
	config   config.Config
	genesis  *genesis.Genesis
	rules    *genesis.Rules
	registry chain.Registry
	db       Database

	processor *chain.Processor
	mempool   *mempool.Mempool[*chain.Transaction]
	metrics   *Metrics

	// acceptLock is held exclusively while a block is built and accepted.
	acceptLock   sync.RWMutex
	lastAccepted *chain.Block

	subscriptionLock sync.Mutex
	subscriptions    map[uint64]chan *chain.ExecutedBlock
	nextSubscription uint64

	builder  *errgroup.Group
	stop     chan struct{}
	stopOnce sync.Once
}

// New builds the chain described by [g] on top of [db]. The genesis state is
// written the first time [db] is used; afterwards [g] must match the genesis
// [db] was initialized with.
func New(
	ctx context.Context,
	log logging.Logger,
	cfg config.Config,
	g *genesis.Genesis,
	db Database,
	registerer prometheus.Registerer,
) (*VM, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if err := g.Verify(); err != nil {
		return nil, err
	}
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	rules, err := g.Rules(log, registerer)
	if err != nil {
		return nil, err
	}
	tracer, err := stracer.New(cfg.Trace)
	if err != nil {
		return nil, err
	}
	processor, err := chain.NewProcessor(log, tracer, rules, auth.Engines(), cfg.AuthVerificationCores, registerer)
	if err != nil {
		return nil, err
	}
	metrics, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}

	vm := &VM{
		log:       log,
		tracer:    tracer,
		config:    cfg,
		genesis:   g,
		rules:     rules,
		registry:  registry,
		db:        db,
		processor: processor,
		mempool: mempool.New[*chain.Transaction](
			log,
			cfg.MempoolSize,
			cfg.MempoolSponsorSize,
			cfg.MempoolExemptSponsors,
		),
		metrics:       metrics,
		subscriptions: make(map[uint64]chan *chain.ExecutedBlock),
		stop:          make(chan struct{}),
	}
	if err := vm.initializeState(ctx); err != nil {
		return nil, err
	}
	vm.metrics.lastAcceptedHgt.Set(float64(vm.lastAccepted.Height))
	return vm, nil
}

func (vm *VM) initializeState(ctx context.Context) error {
	digest, err := vm.genesis.Digest()
	if err != nil {
		return err
	}
	stored, ok, err := storage.GetGenesis(vm.db)
	if err != nil {
		return err
	}
	if ok {
		if stored != digest {
			return fmt.Errorf("%w: database=%s provided=%s", genesis.ErrGenesisMismatch, stored, digest)
		}
		return vm.loadLastAccepted()
	}

	mu := newBufferedState(vm.db)
	if err := vm.genesis.InitializeState(ctx, vm.log, mu, vm.rules); err != nil {
		return fmt.Errorf("unable to initialize genesis state: %w", err)
	}
	blk, err := chain.NewBlock(ids.Empty, 0, vm.genesis.Timestamp, nil)
	if err != nil {
		return err
	}
	batch := vm.db.NewBatch()
	if err := mu.WriteChanges(batch); err != nil {
		return err
	}
	if err := writeBlock(batch, blk); err != nil {
		return err
	}
	if err := storage.SetGenesis(batch, digest); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	vm.lastAccepted = blk
	vm.log.Info("stored genesis",
		zap.Stringer("chainID", digest),
		zap.Stringer("blkID", blk.ID()),
	)
	return nil
}

func (vm *VM) loadLastAccepted() error {
	height, err := storage.GetHeight(vm.db)
	if err != nil {
		return err
	}
	b, ok, err := storage.GetBlock(vm.db, height)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: block at height %d", ErrStateMissing, height)
	}
	blk, err := chain.UnmarshalBlock(b, vm.registry)
	if err != nil {
		return err
	}
	vm.lastAccepted = blk
	vm.log.Info("loaded last accepted block",
		zap.Uint64("height", blk.Height),
		zap.Stringer("blkID", blk.ID()),
	)
	return nil
}

func writeBlock(w database.KeyValueWriter, blk *chain.Block) error {
	if err := storage.StoreBlock(w, blk.Height, blk.ID(), blk.Bytes()); err != nil {
		return err
	}
	if err := storage.SetHeight(w, blk.Height); err != nil {
		return err
	}
	return storage.SetTimestamp(w, blk.Timestamp)
}

// Start builds a block every [config.Config.BuildInterval] while the mempool
// is not empty, until [VM.Shutdown] is called or [ctx] is done.
func (vm *VM) Start(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	vm.builder = g
	g.Go(func() error {
		t := time.NewTicker(vm.config.BuildInterval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				if vm.mempool.Len(ctx) == 0 {
					continue
				}
				if _, err := vm.BuildBlock(ctx); err != nil {
					vm.log.Warn("unable to build block", zap.Error(err))
				}
			case <-vm.stop:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	})
	vm.log.Info("started block builder", zap.Duration("interval", vm.config.BuildInterval))
}

// Shutdown stops the builder, closes every block subscription, flushes the
// tracer and closes the database.
func (vm *VM) Shutdown() error {
	var err error
	vm.stopOnce.Do(func() {
		close(vm.stop)
		if vm.builder != nil {
			_ = vm.builder.Wait()
		}

		vm.subscriptionLock.Lock()
		for id, ch := range vm.subscriptions {
			close(ch)
			delete(vm.subscriptions, id)
		}
		vm.subscriptionLock.Unlock()

		if terr := vm.tracer.Close(); terr != nil {
			vm.log.Warn("unable to close tracer", zap.Error(terr))
		}
		err = vm.db.Close()
		vm.log.Info("shutdown complete", zap.Error(err))
	})
	return err
}

// Submit validates [txs] against the last accepted block and adds the valid
// ones to the mempool. The returned slice holds the outcome of each
// transaction in order.
func (vm *VM) Submit(ctx context.Context, txs []*chain.Transaction) []error {
	vm.metrics.txsSubmitted.Add(float64(len(txs)))

	var (
		errs    = make([]error, len(txs))
		valid   = make([]*chain.Transaction, 0, len(txs))
		indices = make([]int, 0, len(txs))
		seen    = set.NewSet[ids.ID](len(txs))
	)
	vm.acceptLock.RLock()
	timestamp := max(time.Now().UnixMilli(), vm.lastAccepted.Timestamp)
	for i, tx := range txs {
		if seen.Contains(tx.ID()) || vm.mempool.Has(ctx, tx.ID()) {
			errs[i] = fmt.Errorf("%w: %w", ErrNotAdded, chain.ErrDuplicateTx)
			continue
		}
		if err := vm.processor.PreExecute(vm.db, tx, timestamp); err != nil {
			errs[i] = fmt.Errorf("%w: %w", ErrNotAdded, err)
			continue
		}
		if err := vm.processor.VerifySignatures(ctx, []*chain.Transaction{tx}); err != nil {
			errs[i] = fmt.Errorf("%w: %w", ErrNotAdded, err)
			continue
		}
		seen.Add(tx.ID())
		valid = append(valid, tx)
		indices = append(indices, i)
	}
	vm.acceptLock.RUnlock()

	vm.mempool.Add(ctx, valid)
	for j, tx := range valid {
		if !vm.mempool.Has(ctx, tx.ID()) {
			errs[indices[j]] = ErrDropped
		}
	}
	vm.metrics.mempoolSize.Set(float64(vm.mempool.Len(ctx)))
	vm.log.Debug("submitted txs",
		zap.Int("count", len(txs)),
		zap.Int("valid", len(valid)),
	)
	return errs
}

// SubscribeBlocks returns a channel that receives every block accepted after
// the call. A subscriber that falls [config.Config.StreamingBacklogSize]
// blocks behind is removed and its channel closed. Calling the returned
// function cancels the subscription.
func (vm *VM) SubscribeBlocks() (<-chan *chain.ExecutedBlock, func()) {
	vm.subscriptionLock.Lock()
	defer vm.subscriptionLock.Unlock()

	id := vm.nextSubscription
	vm.nextSubscription++
	ch := make(chan *chain.ExecutedBlock, vm.config.StreamingBacklogSize)
	vm.subscriptions[id] = ch
	return ch, func() {
		vm.subscriptionLock.Lock()
		defer vm.subscriptionLock.Unlock()

		if ch, ok := vm.subscriptions[id]; ok {
			close(ch)
			delete(vm.subscriptions, id)
		}
	}
}

func (vm *VM) publish(blk *chain.ExecutedBlock) {
	vm.subscriptionLock.Lock()
	defer vm.subscriptionLock.Unlock()

	for id, ch := range vm.subscriptions {
		select {
		case ch <- blk:
		default:
			close(ch)
			delete(vm.subscriptions, id)
			vm.metrics.droppedFeeds.Inc()
			vm.log.Debug("removed slow block subscriber", zap.Uint64("subscription", id))
		}
	}
}
