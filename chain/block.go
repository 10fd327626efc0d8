// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

// MaxBlockTxs bounds the number of transactions in a block.
const MaxBlockTxs = 1_024

type Block struct {
	Parent    ids.ID `json:"parent"`
	Height    uint64 `json:"height"`
	Timestamp int64  `json:"timestamp"`

	Txs []*Transaction `json:"txs"`

	bytes []byte
	id    ids.ID
}

func NewBlock(parent ids.ID, height uint64, timestamp int64, txs []*Transaction) (*Block, error) {
	b := &Block{
		Parent:    parent,
		Height:    height,
		Timestamp: timestamp,
		Txs:       txs,
	}
	size := consts.IDLen + consts.Uint64Len + consts.Int64Len + consts.Uint32Len
	for _, tx := range txs {
		size += tx.Size()
	}
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	if err := b.Marshal(p); err != nil {
		return nil, err
	}
	b.bytes = p.Bytes()
	b.id = hashing.ComputeHash256Array(b.bytes)
	return b, nil
}

func (b *Block) ID() ids.ID { return b.id }

func (b *Block) Bytes() []byte { return b.bytes }

func (b *Block) Marshal(p *codec.Packer) error {
	if len(b.Txs) > MaxBlockTxs {
		return fmt.Errorf("%w: %d > %d", ErrTooManyTxs, len(b.Txs), MaxBlockTxs)
	}
	p.PackID(b.Parent)
	p.PackUint64(b.Height)
	p.PackInt64(b.Timestamp)
	p.PackInt(uint32(len(b.Txs)))
	for _, tx := range b.Txs {
		if err := tx.Marshal(p); err != nil {
			return err
		}
	}
	return p.Err()
}

func UnmarshalBlock(raw []byte, registry Registry) (*Block, error) {
	var (
		p = codec.NewReader(raw, consts.NetworkSizeLimit)
		b Block
	)
	// The genesis block is the only block with an empty parent.
	p.UnpackID(false, &b.Parent)
	b.Height = p.UnpackUint64(false)
	b.Timestamp = p.UnpackInt64(false)
	numTxs := p.UnpackInt()
	if err := p.Err(); err != nil {
		return nil, err
	}
	if numTxs > MaxBlockTxs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTxs, numTxs, MaxBlockTxs)
	}
	b.Txs = make([]*Transaction, 0, numTxs)
	for i := uint32(0); i < numTxs; i++ {
		tx, err := UnmarshalTx(p, registry)
		if err != nil {
			return nil, err
		}
		b.Txs = append(b.Txs, tx)
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: block", codec.ErrExtraBytes)
	}
	b.bytes = raw
	b.id = hashing.ComputeHash256Array(raw)
	return &b, p.Err()
}

// ExecutedBlock is an accepted block with the outcome of each of its
// transactions, in order.
type ExecutedBlock struct {
	Block   *Block    `json:"block"`
	Results []*Result `json:"results"`
}
