// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/stakevm/actions"
	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
)

// NewRegistry returns the parsers for every action and auth the chain
// accepts.
func NewRegistry() (chain.Registry, error) {
	actionParser := codec.NewTypeParser[chain.Action]()
	authParser := codec.NewTypeParser[chain.Auth]()

	errs := &wrappers.Errs{}
	errs.Add(
		// When registering new actions, ALWAYS make sure to append at the end.
		actionParser.Register(&actions.Deposit{}, actions.UnmarshalDeposit),
		actionParser.Register(&actions.Harvest{}, actions.UnmarshalHarvest),
		actionParser.Register(&actions.Withdraw{}, actions.UnmarshalWithdraw),
		actionParser.Register(&actions.MintAsset{}, actions.UnmarshalMintAsset),
		actionParser.Register(&actions.ApproveAsset{}, actions.UnmarshalApproveAsset),
		actionParser.Register(&actions.SetApprovalForAll{}, actions.UnmarshalSetApprovalForAll),
		actionParser.Register(&actions.TransferAsset{}, actions.UnmarshalTransferAsset),
		actionParser.Register(&actions.TransferReward{}, actions.UnmarshalTransferReward),

		authParser.Register(&auth.ED25519{}, auth.UnmarshalED25519),
	)
	if errs.Errored() {
		return nil, errs.Err
	}
	return chain.NewRegistry(actionParser, authParser), nil
}
