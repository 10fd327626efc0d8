// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import "errors"

var (
	ErrNotMinter         = errors.New("actor is not the minter")
	ErrUnexpectedAssetID = errors.New("unexpected asset id")
	ErrOutputValueZero   = errors.New("value is zero")
	ErrInvalidOutput     = errors.New("invalid output")
)
