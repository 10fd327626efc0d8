// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/state"
)

var (
	_ chain.Action = (*MintAsset)(nil)
	_ chain.Action = (*ApproveAsset)(nil)
	_ chain.Action = (*SetApprovalForAll)(nil)
	_ chain.Action = (*TransferAsset)(nil)
)

// MintAsset creates the next asset of the collection for [To]. Only the
// minter may issue it. [Asset] must be the id the collection assigns next
// so the keys it touches are known before execution.
type MintAsset struct {
	To       codec.Address `json:"to"`
	Asset    uint64        `json:"asset"`
	Metadata []byte        `json:"metadata"`
}

func (*MintAsset) GetTypeID() uint8 {
	return MintAssetID
}

func (m *MintAsset) StateKeys(_ codec.Address, r chain.Rules) state.Keys {
	return r.Collection().MintKeys(m.Asset)
}

func (m *MintAsset) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	if actor != r.Minter() {
		return nil, ErrNotMinter
	}
	next, err := r.Collection().NextAsset(ctx, mu)
	if err != nil {
		return nil, err
	}
	if next != m.Asset {
		return nil, fmt.Errorf("%w: next is %d", ErrUnexpectedAssetID, next)
	}
	asset, err := r.Collection().Mint(ctx, mu, m.To, m.Metadata)
	if err != nil {
		return nil, err
	}
	return PackUint64Output(asset), nil
}

func (m *MintAsset) Size() int {
	return codec.AddressLen + consts.Uint64Len + codec.BytesLen(m.Metadata)
}

func (m *MintAsset) Marshal(p *codec.Packer) {
	p.PackAddress(m.To)
	p.PackUint64(m.Asset)
	p.PackBytes(m.Metadata)
}

func UnmarshalMintAsset(p *codec.Packer) (chain.Action, error) {
	var mint MintAsset
	p.UnpackAddress(&mint.To)
	mint.Asset = p.UnpackUint64(true)
	p.UnpackBytes(nft.MaxMetadataSize, false, &mint.Metadata)
	return &mint, p.Err()
}

// ApproveAsset lets [Spender] move [Asset] once. [Owner] is the current
// owner of the asset: the actor itself or an account the actor operates for.
type ApproveAsset struct {
	Owner   codec.Address `json:"owner"`
	Spender codec.Address `json:"spender"`
	Asset   uint64        `json:"asset"`
}

func (*ApproveAsset) GetTypeID() uint8 {
	return ApproveAssetID
}

func (a *ApproveAsset) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return r.Collection().TransferKeys(a.Owner, actor, a.Asset)
}

func (a *ApproveAsset) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	return nil, r.Collection().Approve(ctx, mu, actor, a.Spender, a.Asset)
}

func (*ApproveAsset) Size() int {
	return 2*codec.AddressLen + consts.Uint64Len
}

func (a *ApproveAsset) Marshal(p *codec.Packer) {
	p.PackAddress(a.Owner)
	p.PackAddress(a.Spender)
	p.PackUint64(a.Asset)
}

func UnmarshalApproveAsset(p *codec.Packer) (chain.Action, error) {
	var approve ApproveAsset
	p.UnpackAddress(&approve.Owner)
	p.UnpackAddress(&approve.Spender)
	approve.Asset = p.UnpackUint64(true)
	return &approve, p.Err()
}

// SetApprovalForAll grants or revokes [Operator] control over every asset
// the actor owns. Depositing requires the ledger to be an operator.
type SetApprovalForAll struct {
	Operator codec.Address `json:"operator"`
	Approved bool          `json:"approved"`
}

func (*SetApprovalForAll) GetTypeID() uint8 {
	return SetApprovalForAllID
}

func (s *SetApprovalForAll) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return r.Collection().OperatorKeys(actor, s.Operator)
}

func (s *SetApprovalForAll) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	return nil, r.Collection().SetApprovalForAll(ctx, mu, actor, s.Operator, s.Approved)
}

func (*SetApprovalForAll) Size() int {
	return codec.AddressLen + consts.BoolLen
}

func (s *SetApprovalForAll) Marshal(p *codec.Packer) {
	p.PackAddress(s.Operator)
	p.PackBool(s.Approved)
}

func UnmarshalSetApprovalForAll(p *codec.Packer) (chain.Action, error) {
	var set SetApprovalForAll
	p.UnpackAddress(&set.Operator)
	set.Approved = p.UnpackBool()
	return &set, p.Err()
}

// TransferAsset moves [Asset] from [From] to [To] on behalf of the actor.
type TransferAsset struct {
	From  codec.Address `json:"from"`
	To    codec.Address `json:"to"`
	Asset uint64        `json:"asset"`
}

func (*TransferAsset) GetTypeID() uint8 {
	return TransferAssetID
}

func (t *TransferAsset) StateKeys(actor codec.Address, r chain.Rules) state.Keys {
	return r.Collection().TransferKeys(t.From, actor, t.Asset)
}

func (t *TransferAsset) Execute(
	ctx context.Context,
	r chain.Rules,
	mu state.Mutable,
	_ uint64,
	_ int64,
	actor codec.Address,
	_ ids.ID,
) ([]byte, error) {
	return nil, r.Collection().TransferFrom(ctx, mu, actor, t.From, t.To, t.Asset)
}

func (*TransferAsset) Size() int {
	return 2*codec.AddressLen + consts.Uint64Len
}

func (t *TransferAsset) Marshal(p *codec.Packer) {
	p.PackAddress(t.From)
	p.PackAddress(t.To)
	p.PackUint64(t.Asset)
}

func UnmarshalTransferAsset(p *codec.Packer) (chain.Action, error) {
	var transfer TransferAsset
	p.UnpackAddress(&transfer.From)
	p.UnpackAddress(&transfer.To)
	transfer.Asset = p.UnpackUint64(true)
	return &transfer, p.Err()
}
