// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import "errors"

var (
	ErrAssetNotFound         = errors.New("ERC721: owner query for nonexistent token")
	ErrNotOwnerOrNotApproved = errors.New("ERC721: transfer caller is not owner nor approved")
	ErrIncorrectOwner        = errors.New("ERC721: transfer of token that is not own")
	ErrTransferToEmpty       = errors.New("ERC721: transfer to the zero address")
	ErrMintToEmpty           = errors.New("ERC721: mint to the zero address")
	ErrApprovalToOwner       = errors.New("ERC721: approval to current owner")
	ErrApproveNotAllowed     = errors.New("ERC721: approve caller is not owner nor approved for all")
	ErrApproveToCaller       = errors.New("ERC721: approve to caller")
	ErrMetadataTooLarge      = errors.New("metadata too large")
	ErrCounterOverflow       = errors.New("asset counter overflow")
)
