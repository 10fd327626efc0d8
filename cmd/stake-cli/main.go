// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "stake-cli" manages keys and known chains and issues transactions to a
// stakevm node.
package main

import (
	"os"

	"github.com/ava-labs/stakevm/cmd/stake-cli/cmd"
	"github.com/ava-labs/stakevm/utils"
)

func main() {
	if err := cmd.Execute(); err != nil {
		utils.Outf("{{red}}stake-cli exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
