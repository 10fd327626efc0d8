// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
)

const (
	failureByte = byte(0x0)
	successByte = byte(0x1)

	// MaxErrorSize bounds the error text persisted with a failed transaction.
	MaxErrorSize = 256
)

// GetHeight returns the height of the last accepted block (0 before genesis
// is applied).
func GetHeight(db database.KeyValueReader) (uint64, error) {
	v, err := db.Get(heightKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(v)
}

func SetHeight(db database.KeyValueWriter, height uint64) error {
	return database.PutUInt64(db, heightKey, height)
}

// GetTimestamp returns the unix millisecond timestamp of the last accepted
// block.
func GetTimestamp(db database.KeyValueReader) (int64, error) {
	v, err := db.Get(timestampKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	t, err := database.ParseUInt64(v)
	return int64(t), err
}

func SetTimestamp(db database.KeyValueWriter, t int64) error {
	return database.PutUInt64(db, timestampKey, uint64(t))
}

// [txPrefix] + [txID]
func TxKey(id ids.ID) []byte {
	k := make([]byte, 1+consts.IDLen)
	k[0] = txPrefix
	copy(k[1:], id[:])
	return k
}

func StoreTransaction(
	db database.KeyValueWriter,
	id ids.ID,
	height uint64,
	success bool,
	output []byte,
	errMsg string,
) error {
	if len(errMsg) > MaxErrorSize {
		errMsg = errMsg[:MaxErrorSize]
	}
	p := codec.NewWriter(consts.Uint64Len+consts.BoolLen, consts.NetworkSizeLimit)
	p.PackUint64(height)
	if success {
		p.PackByte(successByte)
	} else {
		p.PackByte(failureByte)
	}
	p.PackBytes(output)
	p.PackBytes([]byte(errMsg))
	if err := p.Err(); err != nil {
		return err
	}
	return db.Put(TxKey(id), p.Bytes())
}

// GetTransaction returns whether [id] was included in an accepted block and,
// if so, the height, outcome, output and error text.
func GetTransaction(
	db database.KeyValueReader,
	id ids.ID,
) (bool, uint64, bool, []byte, string, error) {
	v, err := db.Get(TxKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return false, 0, false, nil, "", nil
	}
	if err != nil {
		return false, 0, false, nil, "", err
	}
	p := codec.NewReader(v, consts.NetworkSizeLimit)
	height := p.UnpackUint64(false)
	success := p.UnpackByte() == successByte
	var output, errMsg []byte
	p.UnpackBytes(-1, false, &output)
	p.UnpackBytes(MaxErrorSize, false, &errMsg)
	if err := p.Err(); err != nil {
		return false, 0, false, nil, "", fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return true, height, success, output, string(errMsg), nil
}

func HasTransaction(db database.KeyValueReader, id ids.ID) (bool, error) {
	return db.Has(TxKey(id))
}

// GetGenesis returns the digest of the genesis the database was initialized
// with.
func GetGenesis(db database.KeyValueReader) (ids.ID, bool, error) {
	v, err := db.Get(genesisKey)
	if errors.Is(err, database.ErrNotFound) {
		return ids.Empty, false, nil
	}
	if err != nil {
		return ids.Empty, false, err
	}
	id, err := ids.ToID(v)
	return id, err == nil, err
}

func SetGenesis(db database.KeyValueWriter, digest ids.ID) error {
	return db.Put(genesisKey, digest[:])
}

// [blockPrefix] + [height]
func BlockKey(height uint64) []byte {
	k := make([]byte, 1+consts.Uint64Len)
	k[0] = blockPrefix
	binary.BigEndian.PutUint64(k[1:], height)
	return k
}

// [blockIDPrefix] + [blockID]
func BlockIDKey(id ids.ID) []byte {
	k := make([]byte, 1+consts.IDLen)
	k[0] = blockIDPrefix
	copy(k[1:], id[:])
	return k
}

// StoreBlock indexes the serialized block [b] by [height] and [id].
func StoreBlock(db database.KeyValueWriter, height uint64, id ids.ID, b []byte) error {
	if err := db.Put(BlockKey(height), b); err != nil {
		return err
	}
	return database.PutUInt64(db, BlockIDKey(id), height)
}

// GetBlock returns the serialized block accepted at [height].
func GetBlock(db database.KeyValueReader, height uint64) ([]byte, bool, error) {
	v, err := db.Get(BlockKey(height))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetBlockHeight returns the height of the accepted block [id].
func GetBlockHeight(db database.KeyValueReader, id ids.ID) (uint64, bool, error) {
	v, err := db.Get(BlockIDKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	height, err := database.ParseUInt64(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return height, true, nil
}
