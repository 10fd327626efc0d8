// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

const (
	DepositID uint8 = iota
	HarvestID
	WithdrawID
	MintAssetID
	ApproveAssetID
	SetApprovalForAllID
	TransferAssetID
	TransferRewardID
)
