// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stakevm/cli"
	"github.com/ava-labs/stakevm/utils"
)

const (
	fsModeWrite     = 0o600
	defaultDatabase = ".stake-cli"
	defaultGenesis  = "genesis.json"
)

var (
	handler *cli.Handler

	dbPath         string
	genesisFile    string
	rewardRate     uint64
	validityWindow int64
	ledgerFunding  uint64
	allocation     uint64
	hideTxs        bool
	checkAllURIs   bool
	exportPath     string

	rootCmd = &cobra.Command{
		Use:        "stake-cli",
		Short:      "StakeVM CLI",
		SuggestFor: []string{"stake-cli", "stakecli"},
	}
)

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDatabase
	}
	return filepath.Join(home, defaultDatabase)
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		genesisCmd,
		keyCmd,
		chainCmd,
		actionCmd,
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"database",
		defaultDatabasePath(),
		"path to database (will create it missing)",
	)
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		utils.Outf("{{yellow}}database:{{/}} %s\n", dbPath)
		h, err := cli.New(dbPath)
		if err != nil {
			return err
		}
		handler = h
		return nil
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		return handler.CloseDatabase()
	}
	rootCmd.SilenceErrors = true

	// genesis
	genGenesisCmd.PersistentFlags().StringVar(
		&genesisFile,
		"genesis-file",
		defaultGenesis,
		"genesis file path",
	)
	genGenesisCmd.PersistentFlags().Uint64Var(
		&rewardRate,
		"reward-rate",
		0,
		"reward paid per staked asset per block (0 keeps the default)",
	)
	genGenesisCmd.PersistentFlags().Int64Var(
		&validityWindow,
		"validity-window",
		0,
		"validity window in ms (0 keeps the default)",
	)
	genGenesisCmd.PersistentFlags().Uint64Var(
		&ledgerFunding,
		"ledger-funding",
		1_000_000,
		"reward tokens credited to the ledger",
	)
	genGenesisCmd.PersistentFlags().Uint64Var(
		&allocation,
		"allocation",
		1_000,
		"reward tokens credited to the default key",
	)
	genesisCmd.AddCommand(
		genGenesisCmd,
	)

	// key
	balanceKeyCmd.PersistentFlags().BoolVar(
		&checkAllURIs,
		"check-all-uris",
		false,
		"check every uri of the default chain",
	)
	exportKeyCmd.PersistentFlags().StringVar(
		&exportPath,
		"path",
		"",
		"file to write the key to (prints it when empty)",
	)
	keyCmd.AddCommand(
		genKeyCmd,
		importKeyCmd,
		exportKeyCmd,
		setKeyCmd,
		balanceKeyCmd,
	)

	// chain
	watchChainCmd.PersistentFlags().BoolVar(
		&hideTxs,
		"hide-txs",
		false,
		"hide txs",
	)
	chainCmd.AddCommand(
		importChainCmd,
		setChainCmd,
		chainInfoCmd,
		watchChainCmd,
	)

	// actions
	actionCmd.AddCommand(
		depositCmd,
		harvestCmd,
		withdrawCmd,
		mintCmd,
		approveCmd,
		approveAllCmd,
		transferAssetCmd,
		transferRewardCmd,
		assetInfoCmd,
	)
}

func Execute() error {
	return rootCmd.Execute()
}
