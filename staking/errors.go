// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package staking

import "errors"

var (
	ErrAlreadyStaked             = errors.New("Stake: Token is already staked")
	ErrNotStaker                 = errors.New("Stake: caller is not the staker")
	ErrArithmeticOverflow        = errors.New("Stake: reward arithmetic overflow")
	ErrInsufficientRewardBalance = errors.New("Stake: insufficient reward balance")
	ErrReentrantCall             = errors.New("Stake: reentrant call")
	ErrNoAssets                  = errors.New("Stake: no assets to deposit")
	ErrTooManyAssets             = errors.New("Stake: too many assets")
	ErrCustodyMismatch           = errors.New("Stake: asset is not held by the ledger")
	ErrInvalidConfig             = errors.New("Stake: invalid config")
)
