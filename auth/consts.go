// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import "github.com/ava-labs/stakevm/chain"

// Note: Registry will error during initialization if a duplicate ID is assigned. We explicitly assign IDs to avoid accidental remapping.
const (
	ED25519ID uint8 = 0

	ED25519Key = "ed25519"
)

func Engines() map[uint8]chain.AuthEngine {
	return map[uint8]chain.AuthEngine{
		ED25519ID: &ED25519Engine{},
	}
}
