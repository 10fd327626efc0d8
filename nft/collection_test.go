// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nft

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/state/statetest"
	"github.com/ava-labs/stakevm/tstate"
)

var (
	user1  = codec.CreateAddress(0, ids.GenerateTestID())
	user2  = codec.CreateAddress(0, ids.GenerateTestID())
	ledger = codec.CreateAddress(0, ids.GenerateTestID())
)

// newFixture mints #1 to user1 and #2 to user2.
func newFixture(t *testing.T) (*Collection, *statetest.InMemoryStore) {
	require := require.New(t)
	ctx := context.TODO()
	c := New(Address("fixture"))
	mu := statetest.NewInMemoryStore()

	first, err := c.Mint(ctx, mu, user1, []byte("First"))
	require.NoError(err)
	require.Equal(uint64(1), first)
	second, err := c.Mint(ctx, mu, user2, []byte("Second"))
	require.NoError(err)
	require.Equal(uint64(2), second)
	return c, mu
}

func TestMint(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	c, mu := newFixture(t)

	owner, err := c.OwnerOf(ctx, mu, 1)
	require.NoError(err)
	require.Equal(user1, owner)
	metadata, err := c.Metadata(ctx, mu, 2)
	require.NoError(err)
	require.Equal([]byte("Second"), metadata)

	_, err = c.OwnerOf(ctx, mu, 3)
	require.ErrorIs(err, ErrAssetNotFound)

	_, err = c.Mint(ctx, mu, codec.EmptyAddress, nil)
	require.ErrorIs(err, ErrMintToEmpty)
	_, err = c.Mint(ctx, mu, user1, make([]byte, MaxMetadataSize+1))
	require.ErrorIs(err, ErrMetadataTooLarge)
}

func TestTransferFrom(t *testing.T) {
	tests := map[string]struct {
		setup    func(context.Context, *Collection, state.Mutable) error
		operator codec.Address
		from     codec.Address
		to       codec.Address
		asset    uint64
		err      error
	}{
		"owner transfers": {
			operator: user1,
			from:     user1,
			to:       ledger,
			asset:    1,
		},
		"not approved": {
			operator: ledger,
			from:     user1,
			to:       ledger,
			asset:    1,
			err:      ErrNotOwnerOrNotApproved,
		},
		"approved spender": {
			setup: func(ctx context.Context, c *Collection, mu state.Mutable) error {
				return c.Approve(ctx, mu, user1, ledger, 1)
			},
			operator: ledger,
			from:     user1,
			to:       ledger,
			asset:    1,
		},
		"approval is per asset": {
			setup: func(ctx context.Context, c *Collection, mu state.Mutable) error {
				return c.Approve(ctx, mu, user2, ledger, 2)
			},
			operator: ledger,
			from:     user1,
			to:       ledger,
			asset:    1,
			err:      ErrNotOwnerOrNotApproved,
		},
		"operator": {
			setup: func(ctx context.Context, c *Collection, mu state.Mutable) error {
				return c.SetApprovalForAll(ctx, mu, user1, ledger, true)
			},
			operator: ledger,
			from:     user1,
			to:       user2,
			asset:    1,
		},
		"wrong from": {
			operator: user1,
			from:     user2,
			to:       ledger,
			asset:    1,
			err:      ErrIncorrectOwner,
		},
		"someone else's asset": {
			operator: user2,
			from:     user1,
			to:       user2,
			asset:    1,
			err:      ErrNotOwnerOrNotApproved,
		},
		"unknown asset": {
			operator: user1,
			from:     user1,
			to:       ledger,
			asset:    9,
			err:      ErrAssetNotFound,
		},
		"empty recipient": {
			operator: user1,
			from:     user1,
			to:       codec.EmptyAddress,
			asset:    1,
			err:      ErrTransferToEmpty,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.TODO()
			c, mu := newFixture(t)
			if tt.setup != nil {
				require.NoError(tt.setup(ctx, c, mu))
			}

			err := c.TransferFrom(ctx, mu, tt.operator, tt.from, tt.to, tt.asset)
			require.ErrorIs(err, tt.err)
			if tt.err != nil {
				return
			}
			owner, err := c.OwnerOf(ctx, mu, tt.asset)
			require.NoError(err)
			require.Equal(tt.to, owner)
			spender, err := c.GetApproved(ctx, mu, tt.asset)
			require.NoError(err)
			require.Equal(codec.EmptyAddress, spender)
		})
	}
}

func TestApprove(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	c, mu := newFixture(t)

	require.ErrorIs(c.Approve(ctx, mu, user2, ledger, 1), ErrApproveNotAllowed)
	require.ErrorIs(c.Approve(ctx, mu, user1, user1, 1), ErrApprovalToOwner)
	require.ErrorIs(c.SetApprovalForAll(ctx, mu, user1, user1, true), ErrApproveToCaller)

	// an operator may approve on the owner's behalf
	require.NoError(c.SetApprovalForAll(ctx, mu, user1, user2, true))
	ok, err := c.IsApprovedForAll(ctx, mu, user1, user2)
	require.NoError(err)
	require.True(ok)
	require.NoError(c.Approve(ctx, mu, user2, ledger, 1))
	spender, err := c.GetApproved(ctx, mu, 1)
	require.NoError(err)
	require.Equal(ledger, spender)

	_, err = c.GetApproved(ctx, mu, 5)
	require.ErrorIs(err, ErrAssetNotFound)
}

type hook struct {
	calls int
	err   error
}

func (h *hook) OnAssetReceived(context.Context, state.Mutable, codec.Address, codec.Address, uint64) error {
	h.calls++
	return h.err
}

func TestReceiverHook(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	c, mu := newFixture(t)

	h := &hook{}
	c.RegisterReceiver(ledger, h)
	require.NoError(c.TransferFrom(ctx, mu, user1, user1, ledger, 1))
	require.Equal(1, h.calls)

	errRejected := errors.New("rejected")
	h.err = errRejected
	require.ErrorIs(c.TransferFrom(ctx, mu, user2, user2, ledger, 2), errRejected)
	require.Equal(2, h.calls)
}

func TestTransferKeysCoverTransfer(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	c, mu := newFixture(t)

	scope := c.TransferKeys(user1, ledger, 1)
	view := tstate.New(1).NewView(scope, mu.Snapshot())
	require.NoError(c.Approve(ctx, view, user1, ledger, 1))
	require.NoError(c.TransferFrom(ctx, view, ledger, user1, ledger, 1))

	owner, err := c.OwnerOf(ctx, view, 1)
	require.NoError(err)
	require.Equal(ledger, owner)
}

func TestMintKeysCoverMint(t *testing.T) {
	require := require.New(t)
	ctx := context.TODO()
	c, mu := newFixture(t)

	view := tstate.New(1).NewView(c.MintKeys(3), mu.Snapshot())
	asset, err := c.Mint(ctx, view, user1, []byte("Third"))
	require.NoError(err)
	require.Equal(uint64(3), asset)
}
