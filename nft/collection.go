// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/storage"
)

const MaxMetadataSize = 256

// AssetReceiver is notified after an asset is transferred to the address it
// was registered for. Returning an error fails the transfer.
type AssetReceiver interface {
	OnAssetReceived(
		ctx context.Context,
		mu state.Mutable,
		operator codec.Address,
		from codec.Address,
		asset uint64,
	) error
}

// Collection is a state-backed collection of uniquely owned assets. Every
// method reads and writes through the provided state so a failed
// transaction leaves no trace.
type Collection struct {
	address   codec.Address
	receivers map[codec.Address]AssetReceiver
}

// Address derives the address of the collection called [name].
func Address(name string) codec.Address {
	return codec.CreateAddress(consts.CollectionID, hashing.ComputeHash256Array([]byte(name)))
}

func New(address codec.Address) *Collection {
	return &Collection{
		address:   address,
		receivers: make(map[codec.Address]AssetReceiver),
	}
}

func (c *Collection) Address() codec.Address {
	return c.address
}

// RegisterReceiver installs [r] as the receiver hook of [addr]. A nil [r]
// removes the hook. It must not be called while the collection is in use.
func (c *Collection) RegisterReceiver(addr codec.Address, r AssetReceiver) {
	if r == nil {
		delete(c.receivers, addr)
		return
	}
	c.receivers[addr] = r
}

// NextAsset returns the id [Mint] will assign next.
func (c *Collection) NextAsset(ctx context.Context, im state.Immutable) (uint64, error) {
	last, err := storage.GetAssetCounter(ctx, im, c.address)
	if err != nil {
		return 0, err
	}
	if last == consts.MaxUint64 {
		return 0, ErrCounterOverflow
	}
	return last + 1, nil
}

// Mint creates the next asset, owned by [to], and returns its id. Ids are
// sequential and start at 1.
func (c *Collection) Mint(
	ctx context.Context,
	mu state.Mutable,
	to codec.Address,
	metadata []byte,
) (uint64, error) {
	if to.Empty() {
		return 0, ErrMintToEmpty
	}
	if len(metadata) > MaxMetadataSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrMetadataTooLarge, len(metadata), MaxMetadataSize)
	}
	asset, err := c.NextAsset(ctx, mu)
	if err != nil {
		return 0, err
	}
	if err := storage.SetAssetCounter(ctx, mu, c.address, asset); err != nil {
		return 0, err
	}
	if err := storage.SetAssetOwner(ctx, mu, c.address, asset, to); err != nil {
		return 0, err
	}
	if err := storage.SetAssetMetadata(ctx, mu, c.address, asset, metadata); err != nil {
		return 0, err
	}
	return asset, nil
}

// OwnerOf returns the current owner of [asset].
func (c *Collection) OwnerOf(ctx context.Context, im state.Immutable, asset uint64) (codec.Address, error) {
	owner, exists, err := storage.GetAssetOwner(ctx, im, c.address, asset)
	if err != nil {
		return codec.EmptyAddress, err
	}
	if !exists {
		return codec.EmptyAddress, fmt.Errorf("%w: %d", ErrAssetNotFound, asset)
	}
	return owner, nil
}

func (c *Collection) Metadata(ctx context.Context, im state.Immutable, asset uint64) ([]byte, error) {
	if _, err := c.OwnerOf(ctx, im, asset); err != nil {
		return nil, err
	}
	return storage.GetAssetMetadata(ctx, im, c.address, asset)
}

// Approve lets [spender] move [asset] once. [caller] must own the asset or
// be an operator of its owner. Approving the empty address clears the
// approval.
func (c *Collection) Approve(
	ctx context.Context,
	mu state.Mutable,
	caller codec.Address,
	spender codec.Address,
	asset uint64,
) error {
	owner, err := c.OwnerOf(ctx, mu, asset)
	if err != nil {
		return err
	}
	if spender == owner {
		return ErrApprovalToOwner
	}
	if caller != owner {
		ok, err := storage.IsOperator(ctx, mu, c.address, owner, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrApproveNotAllowed
		}
	}
	return storage.SetAssetApproval(ctx, mu, c.address, asset, spender)
}

// GetApproved returns the empty address when no approval is set.
func (c *Collection) GetApproved(ctx context.Context, im state.Immutable, asset uint64) (codec.Address, error) {
	if _, err := c.OwnerOf(ctx, im, asset); err != nil {
		return codec.EmptyAddress, err
	}
	spender, _, err := storage.GetAssetApproval(ctx, im, c.address, asset)
	return spender, err
}

func (c *Collection) SetApprovalForAll(
	ctx context.Context,
	mu state.Mutable,
	owner codec.Address,
	operator codec.Address,
	approved bool,
) error {
	if owner == operator {
		return ErrApproveToCaller
	}
	return storage.SetOperator(ctx, mu, c.address, owner, operator, approved)
}

func (c *Collection) IsApprovedForAll(
	ctx context.Context,
	im state.Immutable,
	owner codec.Address,
	operator codec.Address,
) (bool, error) {
	return storage.IsOperator(ctx, im, c.address, owner, operator)
}

// TransferFrom moves [asset] from [from] to [to] on behalf of [operator].
// The operator must be [from], the approved address of the asset or an
// operator of [from].
func (c *Collection) TransferFrom(
	ctx context.Context,
	mu state.Mutable,
	operator codec.Address,
	from codec.Address,
	to codec.Address,
	asset uint64,
) error {
	owner, err := c.OwnerOf(ctx, mu, asset)
	if err != nil {
		return err
	}
	allowed, err := c.isApprovedOrOwner(ctx, mu, operator, owner, asset)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNotOwnerOrNotApproved
	}
	if owner != from {
		return ErrIncorrectOwner
	}
	if to.Empty() {
		return ErrTransferToEmpty
	}

	// Clear approvals from the previous owner
	if err := storage.SetAssetApproval(ctx, mu, c.address, asset, codec.EmptyAddress); err != nil {
		return err
	}
	if err := storage.SetAssetOwner(ctx, mu, c.address, asset, to); err != nil {
		return err
	}
	if r, ok := c.receivers[to]; ok {
		return r.OnAssetReceived(ctx, mu, operator, from, asset)
	}
	return nil
}

func (c *Collection) isApprovedOrOwner(
	ctx context.Context,
	im state.Immutable,
	operator codec.Address,
	owner codec.Address,
	asset uint64,
) (bool, error) {
	if operator == owner {
		return true, nil
	}
	spender, ok, err := storage.GetAssetApproval(ctx, im, c.address, asset)
	if err != nil {
		return false, err
	}
	if ok && spender == operator {
		return true, nil
	}
	return storage.IsOperator(ctx, im, c.address, owner, operator)
}

// MintKeys are the keys touched by [Mint] for the next asset [asset].
func (c *Collection) MintKeys(asset uint64) state.Keys {
	keys := make(state.Keys, 3)
	keys.Add(string(storage.AssetCounterKey(c.address)), state.All)
	keys.Add(string(storage.AssetOwnerKey(c.address, asset)), state.All)
	keys.Add(string(storage.AssetMetadataKey(c.address, asset)), state.All)
	return keys
}

// TransferKeys are the keys touched by [TransferFrom] and [Approve] when
// [operator] acts on an asset owned by [owner].
func (c *Collection) TransferKeys(owner codec.Address, operator codec.Address, asset uint64) state.Keys {
	keys := make(state.Keys, 3)
	keys.Add(string(storage.AssetOwnerKey(c.address, asset)), state.Write)
	keys.Add(string(storage.AssetApprovalKey(c.address, asset)), state.All)
	keys.Add(string(storage.OperatorKey(c.address, owner, operator)), state.Read)
	return keys
}

// OperatorKeys are the keys touched by [SetApprovalForAll].
func (c *Collection) OperatorKeys(owner codec.Address, operator codec.Address) state.Keys {
	return state.Keys{string(storage.OperatorKey(c.address, owner, operator)): state.All}
}
