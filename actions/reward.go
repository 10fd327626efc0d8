// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state"
)

var _ chain.Action = (*TransferReward)(nil)

// TransferReward moves [Value] units of the reward token from the actor to
// [To]. Funding the ledger is a transfer to its address.
type TransferReward struct {
	To    codec.Address `json:"to"`
	Value uint64        `json:"value"`
}

func (*TransferReward) GetTypeID() uint8 {
	return TransferRewardID
}

func (t *TransferReward) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return r.RewardToken().TransferKeys(actor, t.To)
}

func (t *TransferReward) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	if t.Value == 0 {
		return nil, ErrOutputValueZero
	}
	return nil, r.RewardToken().Transfer(ctx, mu, actor, t.To, t.Value)
}

func (*TransferReward) Size() int {
	return codec.AddressLen + consts.Uint64Len
}

func (t *TransferReward) Marshal(p *codec.Packer) {
	p.PackAddress(t.To)
	p.PackUint64(t.Value)
}

func UnmarshalTransferReward(p *codec.Packer) (chain.Action, error) {
	var transfer TransferReward
	p.UnpackAddress(&transfer.To)
	transfer.Value = p.UnpackUint64(false)
	return &transfer, p.Err()
}
