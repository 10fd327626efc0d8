// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	// Parsing
	ErrInvalidObject = errors.New("invalid object")
	ErrMissingAuth   = errors.New("transaction is not signed")

	// Transaction validity
	ErrTimestampTooLate  = errors.New("timestamp too late")
	ErrTimestampTooEarly = errors.New("timestamp too early")
	ErrInvalidChainID    = errors.New("invalid chain ID")
	ErrAuthFailed        = errors.New("auth failed")
	ErrDuplicateTx       = errors.New("duplicate transaction")

	// Block validity
	ErrInvalidHeight  = errors.New("invalid block height")
	ErrInvalidParent  = errors.New("invalid block parent")
	ErrBlockTimestamp = errors.New("block timestamp before parent")
	ErrTooManyTxs     = errors.New("too many transactions")
)
