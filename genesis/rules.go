// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/token"
)

var _ chain.Rules = (*Rules)(nil)

type Rules struct {
	chainID        ids.ID
	validityWindow int64
	minter         codec.Address

	collection  *nft.Collection
	rewardToken *token.Token
	ledger      *staking.Ledger
}

func (r *Rules) GetChainID() ids.ID {
	return r.chainID
}

func (r *Rules) GetValidityWindow() int64 {
	return r.validityWindow
}

func (r *Rules) Minter() codec.Address {
	return r.minter
}

func (r *Rules) Collection() *nft.Collection {
	return r.collection
}

func (r *Rules) RewardToken() *token.Token {
	return r.rewardToken
}

func (r *Rules) Ledger() *staking.Ledger {
	return r.ledger
}
