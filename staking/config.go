// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package staking

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

// Config is fixed when the ledger is created. There is no operation that
// changes it.
type Config struct {
	// Collection is the only collection the ledger accepts deposits from.
	Collection codec.Address `json:"collection"`
	// RewardToken pays out accrued rewards.
	RewardToken codec.Address `json:"rewardToken"`
	// Authority is the governing party. It is recorded but not consulted by
	// any operation.
	Authority codec.Address `json:"authority"`
	// RewardRate is paid per asset for every height the asset stays staked.
	RewardRate uint64 `json:"rewardRate"`
}

func (c Config) Verify() error {
	switch {
	case c.Collection.Empty():
		return fmt.Errorf("%w: collection is empty", ErrInvalidConfig)
	case c.RewardToken.Empty():
		return fmt.Errorf("%w: reward token is empty", ErrInvalidConfig)
	case c.Collection == c.RewardToken:
		return fmt.Errorf("%w: collection and reward token must differ", ErrInvalidConfig)
	default:
		return nil
	}
}

// Address returns the account the ledger holds custody and rewards in.
func (c Config) Address() codec.Address {
	p := codec.NewWriter(codec.AddressLen*3+consts.Uint64Len, codec.AddressLen*3+consts.Uint64Len)
	p.PackAddress(c.Collection)
	p.PackAddress(c.RewardToken)
	p.PackFixedBytes(c.Authority[:])
	p.PackUint64(c.RewardRate)
	return codec.CreateAddress(consts.LedgerID, hashing.ComputeHash256Array(p.Bytes()))
}
