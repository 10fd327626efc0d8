// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package staking

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/storage"
)

// MaxDepositAssets bounds the number of assets a single deposit may carry.
const MaxDepositAssets = 64

// Receipt records who staked an asset and the height accrual last restarted
// at. A zero Receipt means the asset is not staked.
type Receipt struct {
	Owner      codec.Address `json:"owner"`
	StakedFrom uint64        `json:"stakedFrom"`
}

// Ledger takes custody of assets from [Config.Collection] and pays
// [Config.RewardRate] units of [Config.RewardToken] per height for each of
// them.
//
// Every state-changing call either applies all of its writes or none of
// them. Bookkeeping is always written before the collaborators are called,
// and a call made while another is still running (for example from a
// receiver hook) fails with [ErrReentrantCall].
type Ledger struct {
	log     logging.Logger
	config  Config
	address codec.Address

	custody Custody
	payer   Payer
	metrics *Metrics

	entered atomic.Bool
}

func New(
	log logging.Logger,
	config Config,
	custody Custody,
	payer Payer,
	metrics *Metrics,
) (*Ledger, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Ledger{
		log:     log,
		config:  config,
		address: config.Address(),
		custody: custody,
		payer:   payer,
		metrics: metrics,
	}, nil
}

func (l *Ledger) Address() codec.Address {
	return l.address
}

func (l *Ledger) Config() Config {
	return l.config
}

func (l *Ledger) RewardRate() uint64 {
	return l.config.RewardRate
}

func (l *Ledger) Authority() codec.Address {
	return l.config.Authority
}

func (l *Ledger) enter() error {
	if !l.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (l *Ledger) exit() {
	l.entered.Store(false)
}

// Receipt returns the zero [Receipt] for assets that are not staked.
func (l *Ledger) Receipt(ctx context.Context, im state.Immutable, asset uint64) (Receipt, error) {
	owner, stakedFrom, exists, err := storage.GetReceipt(ctx, im, asset)
	if err != nil || !exists {
		return Receipt{}, err
	}
	return Receipt{Owner: owner, StakedFrom: stakedFrom}, nil
}

// GetCurrentStakeEarned returns the reward accrued by [asset] at [height].
// Unstaked assets have earned nothing.
func (l *Ledger) GetCurrentStakeEarned(
	ctx context.Context,
	im state.Immutable,
	height uint64,
	asset uint64,
) (uint64, error) {
	r, err := l.Receipt(ctx, im, asset)
	if err != nil {
		return 0, err
	}
	if r.Owner.Empty() {
		return 0, nil
	}
	return l.earned(r, height)
}

func (l *Ledger) earned(r Receipt, height uint64) (uint64, error) {
	if r.StakedFrom > height {
		return 0, fmt.Errorf("%w: staked from %d after height %d", ErrArithmeticOverflow, r.StakedFrom, height)
	}
	elapsed := uint256.NewInt(height - r.StakedFrom)
	earned, overflow := new(uint256.Int).MulOverflow(elapsed, uint256.NewInt(l.config.RewardRate))
	if overflow || !earned.IsUint64() {
		return 0, fmt.Errorf(
			"%w: %d steps at rate %d",
			ErrArithmeticOverflow,
			height-r.StakedFrom,
			l.config.RewardRate,
		)
	}
	return earned.Uint64(), nil
}

// Deposit takes custody of every asset in [assets] on behalf of [caller].
// If any asset cannot be deposited, none of them are.
func (l *Ledger) Deposit(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	assets ...uint64,
) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.exit()

	switch {
	case len(assets) == 0:
		return ErrNoAssets
	case len(assets) > MaxDepositAssets:
		return fmt.Errorf("%w: %d > %d", ErrTooManyAssets, len(assets), MaxDepositAssets)
	}
	rv := state.AsRevertible(mu)
	restore := rv.OpIndex()
	for _, asset := range assets {
		if err := l.deposit(ctx, rv, height, caller, asset); err != nil {
			rv.Rollback(ctx, restore)
			l.metrics.failures.Inc()
			l.log.Debug("deposit reverted",
				zap.Stringer("caller", caller),
				zap.Uint64("asset", asset),
				zap.Error(err),
			)
			return err
		}
	}
	l.metrics.deposits.Add(float64(len(assets)))
	l.metrics.staked.Add(float64(len(assets)))
	return nil
}

func (l *Ledger) deposit(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	asset uint64,
) error {
	_, _, exists, err := storage.GetReceipt(ctx, mu, asset)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %d", ErrAlreadyStaked, asset)
	}
	if err := l.custody.TransferFrom(ctx, mu, l.address, caller, l.address, asset); err != nil {
		return err
	}
	return storage.SetReceipt(ctx, mu, asset, caller, height)
}

// Harvest pays [caller] the reward accrued by [asset] and restarts accrual
// at [height]. The asset stays in custody.
func (l *Ledger) Harvest(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	asset uint64,
) (uint64, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()

	rv := state.AsRevertible(mu)
	restore := rv.OpIndex()
	paid, err := l.harvest(ctx, rv, height, caller, asset)
	if err != nil {
		rv.Rollback(ctx, restore)
		l.metrics.failures.Inc()
		return 0, err
	}
	l.metrics.harvests.Inc()
	l.metrics.rewardPaid.Add(float64(paid))
	l.log.Debug("harvested",
		zap.Stringer("caller", caller),
		zap.Uint64("asset", asset),
		zap.Uint64("paid", paid),
	)
	return paid, nil
}

func (l *Ledger) harvest(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	asset uint64,
) (uint64, error) {
	r, err := l.stakedBy(ctx, mu, caller, asset)
	if err != nil {
		return 0, err
	}
	earned, err := l.earned(r, height)
	if err != nil {
		return 0, err
	}
	if err := storage.SetReceipt(ctx, mu, asset, r.Owner, height); err != nil {
		return 0, err
	}
	return earned, l.pay(ctx, mu, caller, earned)
}

// Withdraw clears the receipt of [asset], pays [caller] what it accrued and
// returns the asset to [caller].
func (l *Ledger) Withdraw(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	asset uint64,
) (uint64, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.exit()

	rv := state.AsRevertible(mu)
	restore := rv.OpIndex()
	paid, err := l.withdraw(ctx, rv, height, caller, asset)
	if err != nil {
		rv.Rollback(ctx, restore)
		l.metrics.failures.Inc()
		return 0, err
	}
	l.metrics.withdrawals.Inc()
	l.metrics.staked.Dec()
	l.metrics.rewardPaid.Add(float64(paid))
	l.log.Debug("withdrew",
		zap.Stringer("caller", caller),
		zap.Uint64("asset", asset),
		zap.Uint64("paid", paid),
	)
	return paid, nil
}

func (l *Ledger) withdraw(
	ctx context.Context,
	mu state.Mutable,
	height uint64,
	caller codec.Address,
	asset uint64,
) (uint64, error) {
	r, err := l.stakedBy(ctx, mu, caller, asset)
	if err != nil {
		return 0, err
	}
	holder, err := l.custody.OwnerOf(ctx, mu, asset)
	if err != nil {
		return 0, err
	}
	if holder != l.address {
		return 0, fmt.Errorf("%w: %d held by %s", ErrCustodyMismatch, asset, holder)
	}
	earned, err := l.earned(r, height)
	if err != nil {
		return 0, err
	}
	if err := storage.DeleteReceipt(ctx, mu, asset); err != nil {
		return 0, err
	}
	if err := l.pay(ctx, mu, caller, earned); err != nil {
		return 0, err
	}
	return earned, l.custody.TransferFrom(ctx, mu, l.address, l.address, caller, asset)
}

func (l *Ledger) stakedBy(
	ctx context.Context,
	im state.Immutable,
	caller codec.Address,
	asset uint64,
) (Receipt, error) {
	r, err := l.Receipt(ctx, im, asset)
	if err != nil {
		return Receipt{}, err
	}
	if r.Owner.Empty() || r.Owner != caller {
		return Receipt{}, fmt.Errorf("%w: %d", ErrNotStaker, asset)
	}
	return r, nil
}

func (l *Ledger) pay(ctx context.Context, mu state.Mutable, to codec.Address, amount uint64) error {
	bal, err := l.payer.BalanceOf(ctx, mu, l.address)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: need %d but ledger holds %d", ErrInsufficientRewardBalance, amount, bal)
	}
	return l.payer.Transfer(ctx, mu, l.address, to, amount)
}
