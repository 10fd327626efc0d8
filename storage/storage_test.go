// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state/statetest"
)

var (
	collection = codec.CreateAddress(1, ids.GenerateTestID())
	token      = codec.CreateAddress(2, ids.GenerateTestID())
	alice      = codec.CreateAddress(0, ids.GenerateTestID())
	bob        = codec.CreateAddress(0, ids.GenerateTestID())
)

func TestReceipt(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()

	_, _, exists, err := GetReceipt(ctx, mu, 1)
	require.NoError(err)
	require.False(exists)

	require.NoError(SetReceipt(ctx, mu, 1, alice, 100))
	owner, from, exists, err := GetReceipt(ctx, mu, 1)
	require.NoError(err)
	require.True(exists)
	require.Equal(alice, owner)
	require.Equal(uint64(100), from)

	require.NoError(DeleteReceipt(ctx, mu, 1))
	owner, _, exists, err = GetReceipt(ctx, mu, 1)
	require.NoError(err)
	require.False(exists)
	require.Equal(codec.EmptyAddress, owner)
}

func TestReceiptCorrupt(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()
	require.NoError(mu.Insert(ctx, ReceiptKey(7), []byte{1, 2, 3}))

	_, _, _, err := GetReceipt(ctx, mu, 7)
	require.ErrorIs(err, ErrInvalidValue)
}

func TestBalances(t *testing.T) {
	tests := map[string]struct {
		initial uint64
		add     uint64
		sub     uint64
		addErr  error
		subErr  error
		final   uint64
	}{
		"add then sub": {
			initial: 10,
			add:     5,
			sub:     15,
			final:   0,
		},
		"overflow": {
			initial: consts.MaxUint64,
			add:     1,
			addErr:  ErrInvalidBalance,
			sub:     1,
			final:   consts.MaxUint64 - 1,
		},
		"underflow": {
			initial: 3,
			sub:     4,
			subErr:  ErrInvalidBalance,
			final:   3,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.TODO()
			mu := statetest.NewInMemoryStore()
			require.NoError(SetBalance(ctx, mu, token, alice, tt.initial))

			if tt.add > 0 {
				_, err := AddBalance(ctx, mu, token, alice, tt.add)
				require.ErrorIs(err, tt.addErr)
			}
			_, err := SubBalance(ctx, mu, token, alice, tt.sub)
			require.ErrorIs(err, tt.subErr)

			bal, err := GetBalance(ctx, mu, token, alice)
			require.NoError(err)
			require.Equal(tt.final, bal)
			if tt.final == 0 {
				_, ok := mu.Storage[string(BalanceKey(token, alice))]
				require.False(ok)
			}
		})
	}
}

func TestBalanceKeysAreScopedByToken(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()
	other := codec.CreateAddress(2, ids.GenerateTestID())

	_, err := AddBalance(ctx, mu, token, alice, 9)
	require.NoError(err)
	bal, err := GetBalance(ctx, mu, other, alice)
	require.NoError(err)
	require.Zero(bal)
	bal, err = GetBalance(ctx, mu, token, bob)
	require.NoError(err)
	require.Zero(bal)
}

func TestAssetOwnership(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()

	_, exists, err := GetAssetOwner(ctx, mu, collection, 1)
	require.NoError(err)
	require.False(exists)

	require.NoError(SetAssetOwner(ctx, mu, collection, 1, alice))
	owner, exists, err := GetAssetOwner(ctx, mu, collection, 1)
	require.NoError(err)
	require.True(exists)
	require.Equal(alice, owner)

	require.NoError(SetAssetApproval(ctx, mu, collection, 1, bob))
	spender, ok, err := GetAssetApproval(ctx, mu, collection, 1)
	require.NoError(err)
	require.True(ok)
	require.Equal(bob, spender)

	require.NoError(SetAssetApproval(ctx, mu, collection, 1, codec.EmptyAddress))
	_, ok, err = GetAssetApproval(ctx, mu, collection, 1)
	require.NoError(err)
	require.False(ok)
}

func TestOperators(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()

	ok, err := IsOperator(ctx, mu, collection, alice, bob)
	require.NoError(err)
	require.False(ok)

	require.NoError(SetOperator(ctx, mu, collection, alice, bob, true))
	ok, err = IsOperator(ctx, mu, collection, alice, bob)
	require.NoError(err)
	require.True(ok)

	// operator approvals are directional
	ok, err = IsOperator(ctx, mu, collection, bob, alice)
	require.NoError(err)
	require.False(ok)

	require.NoError(SetOperator(ctx, mu, collection, alice, bob, false))
	ok, err = IsOperator(ctx, mu, collection, alice, bob)
	require.NoError(err)
	require.False(ok)
}

func TestAssetCounter(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	mu := statetest.NewInMemoryStore()

	last, err := GetAssetCounter(ctx, mu, collection)
	require.NoError(err)
	require.Zero(last)

	require.NoError(SetAssetCounter(ctx, mu, collection, 2))
	last, err = GetAssetCounter(ctx, mu, collection)
	require.NoError(err)
	require.Equal(uint64(2), last)
}
