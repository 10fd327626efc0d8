// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// Metadata (written directly to the database, never through a tstate view)
// 0x0/ (height)
// 0x1/ (timestamp)
// 0x2/ (tx)
//   -> [txID] => height|success|error
// 0x3/ (genesis)
//
// State
// 0x4/ (receipts)
//   -> [asset] => owner|stakedFrom
// 0x5/ (balances)
//   -> [token|owner] => balance
// 0x6/ (asset owners)
//   -> [collection|asset] => owner
// 0x7/ (asset approvals)
//   -> [collection|asset] => spender
// 0x8/ (operators)
//   -> [collection|owner|operator] => approved
// 0x9/ (asset counter)
//   -> [collection] => last minted asset
// 0xa/ (asset metadata)
//   -> [collection|asset] => metadata
//
// Blocks
// 0xb/ (blocks)
//   -> [height] => block
// 0xc/ (block ids)
//   -> [blockID] => height

const (
	heightPrefix byte = iota
	timestampPrefix
	txPrefix
	genesisPrefix

	receiptPrefix
	balancePrefix
	assetOwnerPrefix
	assetApprovalPrefix
	operatorPrefix
	assetCounterPrefix
	assetMetadataPrefix

	blockPrefix
	blockIDPrefix
)

const (
	ReceiptLen = codec.AddressLen + consts.Uint64Len
)

var (
	heightKey    = []byte{heightPrefix}
	timestampKey = []byte{timestampPrefix}
	genesisKey   = []byte{genesisPrefix}

	approvedByte = byte(0x1)
)

// [receiptPrefix] + [asset]
func ReceiptKey(asset uint64) []byte {
	k := make([]byte, 1+consts.Uint64Len)
	k[0] = receiptPrefix
	binary.BigEndian.PutUint64(k[1:], asset)
	return k
}

// GetReceipt returns the staker of [asset] and the height accrual last
// restarted at. The receipt exists iff the returned bool is true.
func GetReceipt(
	ctx context.Context,
	im state.Immutable,
	asset uint64,
) (codec.Address, uint64, bool, error) {
	v, err := im.GetValue(ctx, ReceiptKey(asset))
	if errors.Is(err, database.ErrNotFound) {
		return codec.EmptyAddress, 0, false, nil
	}
	if err != nil {
		return codec.EmptyAddress, 0, false, err
	}
	if len(v) != ReceiptLen {
		return codec.EmptyAddress, 0, false, fmt.Errorf("%w: receipt of asset %d has %d bytes", ErrInvalidValue, asset, len(v))
	}
	var owner codec.Address
	copy(owner[:], v)
	return owner, binary.BigEndian.Uint64(v[codec.AddressLen:]), true, nil
}

func SetReceipt(
	ctx context.Context,
	mu state.Mutable,
	asset uint64,
	owner codec.Address,
	stakedFrom uint64,
) error {
	v := make([]byte, ReceiptLen)
	copy(v, owner[:])
	binary.BigEndian.PutUint64(v[codec.AddressLen:], stakedFrom)
	return mu.Insert(ctx, ReceiptKey(asset), v)
}

func DeleteReceipt(ctx context.Context, mu state.Mutable, asset uint64) error {
	return mu.Remove(ctx, ReceiptKey(asset))
}

// [balancePrefix] + [token] + [owner]
func BalanceKey(token codec.Address, owner codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen*2)
	k[0] = balancePrefix
	copy(k[1:], token[:])
	copy(k[1+codec.AddressLen:], owner[:])
	return k
}

// GetBalance returns 0 for accounts that do not exist.
func GetBalance(
	ctx context.Context,
	im state.Immutable,
	token codec.Address,
	owner codec.Address,
) (uint64, error) {
	return getUint64(ctx, im, BalanceKey(token, owner))
}

func SetBalance(
	ctx context.Context,
	mu state.Mutable,
	token codec.Address,
	owner codec.Address,
	balance uint64,
) error {
	k := BalanceKey(token, owner)
	if balance == 0 {
		// If there is no balance left, we should delete the record instead of
		// setting it to 0.
		return mu.Remove(ctx, k)
	}
	return mu.Insert(ctx, k, binary.BigEndian.AppendUint64(nil, balance))
}

func AddBalance(
	ctx context.Context,
	mu state.Mutable,
	token codec.Address,
	owner codec.Address,
	amount uint64,
) (uint64, error) {
	bal, err := GetBalance(ctx, mu, token, owner)
	if err != nil {
		return 0, err
	}
	if amount > consts.MaxUint64-bal {
		return 0, fmt.Errorf(
			"%w: could not add balance (token=%s, bal=%d, addr=%s, amount=%d)",
			ErrInvalidBalance,
			token,
			bal,
			owner,
			amount,
		)
	}
	nbal := bal + amount
	return nbal, SetBalance(ctx, mu, token, owner, nbal)
}

func SubBalance(
	ctx context.Context,
	mu state.Mutable,
	token codec.Address,
	owner codec.Address,
	amount uint64,
) (uint64, error) {
	bal, err := GetBalance(ctx, mu, token, owner)
	if err != nil {
		return 0, err
	}
	nbal, err := smath.Sub(bal, amount)
	if err != nil {
		return 0, fmt.Errorf(
			"%w: could not subtract balance (token=%s, bal=%d, addr=%s, amount=%d)",
			ErrInvalidBalance,
			token,
			bal,
			owner,
			amount,
		)
	}
	return nbal, SetBalance(ctx, mu, token, owner, nbal)
}

// [assetOwnerPrefix] + [collection] + [asset]
func AssetOwnerKey(collection codec.Address, asset uint64) []byte {
	return assetKey(assetOwnerPrefix, collection, asset)
}

// [assetApprovalPrefix] + [collection] + [asset]
func AssetApprovalKey(collection codec.Address, asset uint64) []byte {
	return assetKey(assetApprovalPrefix, collection, asset)
}

func assetKey(prefix byte, collection codec.Address, asset uint64) []byte {
	k := make([]byte, 1+codec.AddressLen+consts.Uint64Len)
	k[0] = prefix
	copy(k[1:], collection[:])
	binary.BigEndian.PutUint64(k[1+codec.AddressLen:], asset)
	return k
}

// GetAssetOwner returns false if [asset] was never minted.
func GetAssetOwner(
	ctx context.Context,
	im state.Immutable,
	collection codec.Address,
	asset uint64,
) (codec.Address, bool, error) {
	return getAddress(ctx, im, AssetOwnerKey(collection, asset))
}

func SetAssetOwner(
	ctx context.Context,
	mu state.Mutable,
	collection codec.Address,
	asset uint64,
	owner codec.Address,
) error {
	return mu.Insert(ctx, AssetOwnerKey(collection, asset), owner[:])
}

// GetAssetApproval returns the single address allowed to move [asset] on
// behalf of its owner, if any.
func GetAssetApproval(
	ctx context.Context,
	im state.Immutable,
	collection codec.Address,
	asset uint64,
) (codec.Address, bool, error) {
	return getAddress(ctx, im, AssetApprovalKey(collection, asset))
}

func SetAssetApproval(
	ctx context.Context,
	mu state.Mutable,
	collection codec.Address,
	asset uint64,
	spender codec.Address,
) error {
	k := AssetApprovalKey(collection, asset)
	if spender == codec.EmptyAddress {
		return mu.Remove(ctx, k)
	}
	return mu.Insert(ctx, k, spender[:])
}

// [assetMetadataPrefix] + [collection] + [asset]
func AssetMetadataKey(collection codec.Address, asset uint64) []byte {
	return assetKey(assetMetadataPrefix, collection, asset)
}

func GetAssetMetadata(
	ctx context.Context,
	im state.Immutable,
	collection codec.Address,
	asset uint64,
) ([]byte, error) {
	v, err := im.GetValue(ctx, AssetMetadataKey(collection, asset))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func SetAssetMetadata(
	ctx context.Context,
	mu state.Mutable,
	collection codec.Address,
	asset uint64,
	metadata []byte,
) error {
	if len(metadata) == 0 {
		return nil
	}
	return mu.Insert(ctx, AssetMetadataKey(collection, asset), metadata)
}

// [operatorPrefix] + [collection] + [owner] + [operator]
func OperatorKey(collection codec.Address, owner codec.Address, operator codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen*3)
	k[0] = operatorPrefix
	copy(k[1:], collection[:])
	copy(k[1+codec.AddressLen:], owner[:])
	copy(k[1+codec.AddressLen*2:], operator[:])
	return k
}

func IsOperator(
	ctx context.Context,
	im state.Immutable,
	collection codec.Address,
	owner codec.Address,
	operator codec.Address,
) (bool, error) {
	_, err := im.GetValue(ctx, OperatorKey(collection, owner, operator))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func SetOperator(
	ctx context.Context,
	mu state.Mutable,
	collection codec.Address,
	owner codec.Address,
	operator codec.Address,
	approved bool,
) error {
	k := OperatorKey(collection, owner, operator)
	if !approved {
		return mu.Remove(ctx, k)
	}
	return mu.Insert(ctx, k, []byte{approvedByte})
}

// [assetCounterPrefix] + [collection]
func AssetCounterKey(collection codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = assetCounterPrefix
	copy(k[1:], collection[:])
	return k
}

// GetAssetCounter returns the id of the last asset minted in [collection].
func GetAssetCounter(ctx context.Context, im state.Immutable, collection codec.Address) (uint64, error) {
	return getUint64(ctx, im, AssetCounterKey(collection))
}

func SetAssetCounter(ctx context.Context, mu state.Mutable, collection codec.Address, last uint64) error {
	return mu.Insert(ctx, AssetCounterKey(collection), binary.BigEndian.AppendUint64(nil, last))
}

func getUint64(ctx context.Context, im state.Immutable, k []byte) (uint64, error) {
	v, err := im.GetValue(ctx, k)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(v) != consts.Uint64Len {
		return 0, fmt.Errorf("%w: expected %d bytes but found %d", ErrInvalidValue, consts.Uint64Len, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func getAddress(ctx context.Context, im state.Immutable, k []byte) (codec.Address, bool, error) {
	v, err := im.GetValue(ctx, k)
	if errors.Is(err, database.ErrNotFound) {
		return codec.EmptyAddress, false, nil
	}
	if err != nil {
		return codec.EmptyAddress, false, err
	}
	addr, err := codec.ToAddress(v)
	if err != nil {
		return codec.EmptyAddress, false, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return addr, true, nil
}
