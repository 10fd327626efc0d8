// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/utils"
)

var genesisCmd = &cobra.Command{
	Use: "genesis",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

// The default key becomes the minter and the authority of the ledger.
var genGenesisCmd = &cobra.Command{
	Use:   "generate",
	Short: "Creates a new genesis controlled by the default key",
	RunE: func(*cobra.Command, []string) error {
		_, addr, err := handler.GetDefaultKey(true)
		if err != nil {
			return err
		}
		g := genesis.NewDefaultGenesis(addr, []*genesis.CustomAllocation{
			{Address: addr, Balance: allocation},
		})
		g.Authority = addr
		g.LedgerFunding = ledgerFunding
		if rewardRate > 0 {
			g.RewardRate = rewardRate
		}
		if validityWindow > 0 {
			g.ValidityWindow = validityWindow
		}
		if err := g.Verify(); err != nil {
			return err
		}
		b, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(genesisFile, b, fsModeWrite); err != nil {
			return err
		}
		utils.Outf("{{green}}created genesis and saved to %s{{/}}\n", genesisFile)
		return nil
	},
}
