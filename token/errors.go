// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import "errors"

var (
	ErrInsufficientBalance = errors.New("ERC20: transfer amount exceeds balance")
	ErrTransferToEmpty     = errors.New("ERC20: transfer to the zero address")
	ErrBalanceOverflow     = errors.New("ERC20: balance overflow")
)
