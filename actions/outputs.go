// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"fmt"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

// PackUint64Output encodes the single value returned by [Harvest],
// [Withdraw] and [MintAsset].
func PackUint64Output(v uint64) []byte {
	p := codec.NewWriter(consts.Uint64Len, consts.Uint64Len)
	p.PackUint64(v)
	return p.Bytes()
}

func UnpackUint64Output(b []byte) (uint64, error) {
	if len(b) != consts.Uint64Len {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidOutput, len(b))
	}
	p := codec.NewReader(b, consts.Uint64Len)
	v := p.UnpackUint64(false)
	return v, p.Err()
}
