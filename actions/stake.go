// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/storage"
)

var (
	_ chain.Action = (*Deposit)(nil)
	_ chain.Action = (*Harvest)(nil)
	_ chain.Action = (*Withdraw)(nil)
)

// Deposit hands [Assets] to the ledger. The ledger must already be an
// operator of the actor. Either every asset is staked or none is.
type Deposit struct {
	Assets []uint64 `json:"assets"`
}

func (*Deposit) GetTypeID() uint8 {
	return DepositID
}

func (d *Deposit) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	ledger := r.Ledger().Address()
	keys := make(state.Keys, 4*len(d.Assets))
	for _, asset := range d.Assets {
		keys.Add(string(storage.ReceiptKey(asset)), state.All)
		keys.Union(r.Collection().TransferKeys(actor, ledger, asset))
	}
	return keys
}

func (d *Deposit) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	height uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	return nil, r.Ledger().Deposit(ctx, mu, height, actor, d.Assets...)
}

func (d *Deposit) Size() int {
	return codec.Uint64sLen(d.Assets)
}

func (d *Deposit) Marshal(p *codec.Packer) {
	p.PackUint64s(d.Assets)
}

func UnmarshalDeposit(p *codec.Packer) (chain.Action, error) {
	var deposit Deposit
	p.UnpackUint64s(staking.MaxDepositAssets, true, &deposit.Assets)
	return &deposit, p.Err()
}

// Harvest pays out what [Asset] accrued and keeps it staked. The output is
// the amount paid.
type Harvest struct {
	Asset uint64 `json:"asset"`
}

func (*Harvest) GetTypeID() uint8 {
	return HarvestID
}

func (h *Harvest) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	keys := r.RewardToken().TransferKeys(r.Ledger().Address(), actor)
	keys.Add(string(storage.ReceiptKey(h.Asset)), state.All)
	return keys
}

func (h *Harvest) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	height uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	paid, err := r.Ledger().Harvest(ctx, mu, height, actor, h.Asset)
	if err != nil {
		return nil, err
	}
	return PackUint64Output(paid), nil
}

func (*Harvest) Size() int {
	return consts.Uint64Len
}

func (h *Harvest) Marshal(p *codec.Packer) {
	p.PackUint64(h.Asset)
}

func UnmarshalHarvest(p *codec.Packer) (chain.Action, error) {
	var harvest Harvest
	harvest.Asset = p.UnpackUint64(true)
	return &harvest, p.Err()
}

// Withdraw pays out what [Asset] accrued and returns it to the actor. The
// output is the amount paid.
type Withdraw struct {
	Asset uint64 `json:"asset"`
}

func (*Withdraw) GetTypeID() uint8 {
	return WithdrawID
}

func (w *Withdraw) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	ledger := r.Ledger().Address()
	keys := r.RewardToken().TransferKeys(ledger, actor)
	keys.Union(r.Collection().TransferKeys(ledger, ledger, w.Asset))
	keys.Add(string(storage.ReceiptKey(w.Asset)), state.All)
	return keys
}

func (w *Withdraw) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	height uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	paid, err := r.Ledger().Withdraw(ctx, mu, height, actor, w.Asset)
	if err != nil {
		return nil, err
	}
	return PackUint64Output(paid), nil
}

func (*Withdraw) Size() int {
	return consts.Uint64Len
}

func (w *Withdraw) Marshal(p *codec.Packer) {
	p.PackUint64(w.Asset)
}

func UnmarshalWithdraw(p *codec.Packer) (chain.Action, error) {
	var withdraw Withdraw
	withdraw.Asset = p.UnpackUint64(true)
	return &withdraw, p.Err()
}
