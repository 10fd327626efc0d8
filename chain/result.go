// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

type Result struct {
	TxID    ids.ID `json:"txId"`
	Success bool   `json:"success"`
	Error   []byte `json:"error"`
	Output  []byte `json:"output"`
}

func (r *Result) Size() int {
	return consts.IDLen + consts.BoolLen + codec.BytesLen(r.Error) + codec.BytesLen(r.Output)
}

func (r *Result) Marshal(p *codec.Packer) {
	p.PackID(r.TxID)
	p.PackBool(r.Success)
	p.PackBytes(r.Error)
	p.PackBytes(r.Output)
}

func UnmarshalResult(p *codec.Packer) (*Result, error) {
	result := &Result{}
	p.UnpackID(true, &result.TxID)
	result.Success = p.UnpackBool()
	p.UnpackBytes(consts.NetworkSizeLimit, false, &result.Error)
	p.UnpackBytes(consts.NetworkSizeLimit, false, &result.Output)
	return result, p.Err()
}

func MarshalResults(src []*Result) ([]byte, error) {
	size := consts.Uint32Len
	for _, result := range src {
		size += result.Size()
	}
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	p.PackInt(uint32(len(src)))
	for _, result := range src {
		result.Marshal(p)
	}
	return p.Bytes(), p.Err()
}

func UnmarshalResults(src []byte) ([]*Result, error) {
	p := codec.NewReader(src, consts.NetworkSizeLimit)
	items := p.UnpackInt()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if items > MaxBlockTxs {
		return nil, fmt.Errorf("%w: %d results", ErrInvalidObject, items)
	}
	results := make([]*Result, 0, items)
	for i := uint32(0); i < items; i++ {
		result, err := UnmarshalResult(p)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if !p.Empty() {
		return nil, ErrInvalidObject
	}
	return results, nil
}
