// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

// Every websocket message starts with its mode.
const (
	BlockMode byte = 0
	TxMode    byte = 1
)

// A block message carries the block and its results.
const maxMessageSize = 2 * consts.NetworkSizeLimit

func PackBlockMessage(b *chain.ExecutedBlock) ([]byte, error) {
	results, err := chain.MarshalResults(b.Results)
	if err != nil {
		return nil, err
	}
	blkBytes := b.Block.Bytes()
	size := consts.ByteLen + codec.BytesLen(blkBytes) + codec.BytesLen(results)
	p := codec.NewWriter(size, maxMessageSize)
	p.PackByte(BlockMode)
	p.PackBytes(blkBytes)
	p.PackBytes(results)
	return p.Bytes(), p.Err()
}

func UnpackBlockMessage(msg []byte, registry chain.Registry) (*chain.ExecutedBlock, error) {
	p := codec.NewReader(msg, maxMessageSize)
	if mode := p.UnpackByte(); mode != BlockMode {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedMode, mode)
	}
	var blkBytes, resultBytes []byte
	p.UnpackBytes(-1, true, &blkBytes)
	p.UnpackBytes(-1, false, &resultBytes)
	if err := p.Err(); err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: block message", codec.ErrExtraBytes)
	}
	blk, err := chain.UnmarshalBlock(blkBytes, registry)
	if err != nil {
		return nil, err
	}
	results, err := chain.UnmarshalResults(resultBytes)
	if err != nil {
		return nil, err
	}
	if len(results) != len(blk.Txs) {
		return nil, fmt.Errorf("%w: %d results for %d txs", chain.ErrInvalidObject, len(results), len(blk.Txs))
	}
	return &chain.ExecutedBlock{Block: blk, Results: results}, nil
}

// PackAcceptedTxMessage reports the result of an accepted transaction.
func PackAcceptedTxMessage(txID ids.ID, result *chain.Result) ([]byte, error) {
	size := consts.ByteLen + consts.IDLen + consts.BoolLen + result.Size()
	p := codec.NewWriter(size, maxMessageSize)
	p.PackByte(TxMode)
	p.PackID(txID)
	p.PackBool(false)
	result.Marshal(p)
	return p.Bytes(), p.Err()
}

// PackRemovedTxMessage reports a transaction that will never be accepted.
func PackRemovedTxMessage(txID ids.ID, err error) ([]byte, error) {
	errString := []byte(err.Error())
	size := consts.ByteLen + consts.IDLen + consts.BoolLen + codec.BytesLen(errString)
	p := codec.NewWriter(size, maxMessageSize)
	p.PackByte(TxMode)
	p.PackID(txID)
	p.PackBool(true)
	p.PackBytes(errString)
	return p.Bytes(), p.Err()
}

// UnpackTxMessage returns the transaction id and either the reason the
// transaction was removed or its result.
func UnpackTxMessage(msg []byte) (ids.ID, error, *chain.Result, error) {
	p := codec.NewReader(msg, maxMessageSize)
	if mode := p.UnpackByte(); mode != TxMode {
		return ids.Empty, nil, nil, fmt.Errorf("%w: %d", ErrUnexpectedMode, mode)
	}
	var txID ids.ID
	p.UnpackID(true, &txID)
	if p.UnpackBool() {
		var errBytes []byte
		p.UnpackBytes(-1, true, &errBytes)
		if err := p.Err(); err != nil {
			return ids.Empty, nil, nil, err
		}
		return txID, errors.New(string(errBytes)), nil, nil
	}
	result, err := chain.UnmarshalResult(p)
	if err != nil {
		return ids.Empty, nil, nil, err
	}
	if !p.Empty() {
		return ids.Empty, nil, nil, fmt.Errorf("%w: tx message", codec.ErrExtraBytes)
	}
	return txID, nil, result, nil
}
