// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chaintest

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/state"
)

// ActionTest is a single parameterized test. It calls Execute on the action with the passed parameters
// and checks that all assertions pass.
type ActionTest struct {
	Name string

	Action chain.Action

	Rules     chain.Rules
	State     state.Mutable
	Height    uint64
	Timestamp int64
	Actor     codec.Address
	TxID      ids.ID

	ExpectedOutputs []byte
	ExpectedErr     error

	Assertion func(context.Context, *testing.T, state.Mutable)
}

// Run executes the [ActionTest] and make sure all assertions pass.
func (test *ActionTest) Run(ctx context.Context, t *testing.T) {
	t.Run(test.Name, func(t *testing.T) {
		require := require.New(t)

		output, err := test.Action.Execute(
			ctx,
			test.Rules,
			test.State,
			test.Height,
			test.Timestamp,
			test.Actor,
			test.TxID,
		)

		require.ErrorIs(err, test.ExpectedErr)
		require.Equal(test.ExpectedOutputs, output)

		if test.Assertion != nil {
			test.Assertion(ctx, t, test.State)
		}
	})
}

// ActionTestSuite runs every test in [Tests], named by its key.
type ActionTestSuite struct {
	Tests map[string]ActionTest
}

func (s *ActionTestSuite) Run(t *testing.T) {
	ctx := context.Background()
	for name, test := range s.Tests {
		test := test
		if test.Name == "" {
			test.Name = name
		}
		test.Run(ctx, t)
	}
}
