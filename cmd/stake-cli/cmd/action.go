// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import "github.com/spf13/cobra"

var actionCmd = &cobra.Command{
	Use: "action",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Stakes assets with the ledger",
	RunE: func(*cobra.Command, []string) error {
		return handler.Deposit()
	},
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Claims the rewards of a staked asset",
	RunE: func(*cobra.Command, []string) error {
		return handler.Harvest()
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Claims the rewards of a staked asset and takes it back",
	RunE: func(*cobra.Command, []string) error {
		return handler.Withdraw()
	},
}

var mintCmd = &cobra.Command{
	Use: "mint",
	RunE: func(*cobra.Command, []string) error {
		return handler.MintAsset()
	},
}

var approveCmd = &cobra.Command{
	Use: "approve",
	RunE: func(*cobra.Command, []string) error {
		return handler.ApproveAsset()
	},
}

var approveAllCmd = &cobra.Command{
	Use: "approve-all",
	RunE: func(*cobra.Command, []string) error {
		return handler.SetApprovalForAll()
	},
}

var transferAssetCmd = &cobra.Command{
	Use: "transfer-asset",
	RunE: func(*cobra.Command, []string) error {
		return handler.TransferAsset()
	},
}

var transferRewardCmd = &cobra.Command{
	Use: "transfer",
	RunE: func(*cobra.Command, []string) error {
		return handler.TransferReward()
	},
}

var assetInfoCmd = &cobra.Command{
	Use: "asset-info",
	RunE: func(*cobra.Command, []string) error {
		return handler.AssetInfo()
	},
}
