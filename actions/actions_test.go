// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/chain/chaintest"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/state/statetest"
	"github.com/ava-labs/stakevm/storage"
	"github.com/ava-labs/stakevm/token"
	"github.com/ava-labs/stakevm/tstate"
)

var (
	minter = codec.CreateAddress(0, ids.GenerateTestID())
	user1  = codec.CreateAddress(0, ids.GenerateTestID())
	user2  = codec.CreateAddress(0, ids.GenerateTestID())
)

// newRules mints #1 to user1 and #2 to user2, gives user1 10 reward units
// and funds the ledger with 1000.
func newRules(t *testing.T) (*genesis.Rules, func() *statetest.InMemoryStore) {
	require := require.New(t)

	g := genesis.NewDefaultGenesis(minter, []*genesis.CustomAllocation{
		{Address: user1, Balance: 10},
	})
	g.LedgerFunding = 1_000
	g.Assets = []*genesis.InitialAsset{
		{Owner: user1, Metadata: "First"},
		{Owner: user2, Metadata: "Second"},
	}
	r, err := g.Rules(logging.NoLog{}, prometheus.NewRegistry())
	require.NoError(err)

	return r, func() *statetest.InMemoryStore {
		store := statetest.NewInMemoryStore()
		require.NoError(g.InitializeState(context.Background(), logging.NoLog{}, store, r))
		return store
	}
}

// scoped returns a view over [store] that only allows the keys [action]
// declares for [actor].
func scoped(r chain.Rules, action chain.Action, actor codec.Address, store *statetest.InMemoryStore) state.Mutable {
	return tstate.New(0).NewView(action.StateKeys(actor, r), store.Storage)
}

func TestDepositAction(t *testing.T) {
	ctx := context.Background()
	r, newStore := newRules(t)
	ledger := r.Ledger().Address()

	approved := func() *statetest.InMemoryStore {
		store := newStore()
		require.NoError(t, r.Collection().SetApprovalForAll(ctx, store, user1, ledger, true))
		return store
	}
	deposit := &Deposit{Assets: []uint64{1}}

	tests := map[string]chaintest.ActionTest{
		"InvalidStateKey": {
			Action:      deposit,
			Rules:       r,
			State:       tstate.New(0).NewView(state.Keys{}, approved().Storage),
			Height:      100,
			Actor:       user1,
			ExpectedErr: tstate.ErrInvalidKeyOrPermission,
		},
		"NotApproved": {
			Action:      deposit,
			Rules:       r,
			State:       scoped(r, deposit, user1, newStore()),
			Height:      100,
			Actor:       user1,
			ExpectedErr: nft.ErrNotOwnerOrNotApproved,
		},
		"Deposit": {
			Action: deposit,
			Rules:  r,
			State:  scoped(r, deposit, user1, approved()),
			Height: 100,
			Actor:  user1,
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				receipt, err := r.Ledger().Receipt(ctx, mu, 1)
				require.NoError(err)
				require.Equal(staking.Receipt{Owner: user1, StakedFrom: 100}, receipt)
				owner, err := r.Collection().OwnerOf(ctx, mu, 1)
				require.NoError(err)
				require.Equal(ledger, owner)
			},
		},
		"AlreadyStaked": {
			Action: deposit,
			Rules:  r,
			State: func() state.Mutable {
				store := approved()
				require.NoError(t, storage.SetReceipt(ctx, store, 1, user1, 50))
				return scoped(r, deposit, user1, store)
			}(),
			Height:      100,
			Actor:       user1,
			ExpectedErr: staking.ErrAlreadyStaked,
		},
	}

	suite := chaintest.ActionTestSuite{Tests: tests}
	suite.Run(t)
}

func TestHarvestAndWithdrawActions(t *testing.T) {
	ctx := context.Background()
	r, newStore := newRules(t)
	ledger := r.Ledger().Address()

	staked := func() *statetest.InMemoryStore {
		store := newStore()
		require.NoError(t, r.Collection().SetApprovalForAll(ctx, store, user1, ledger, true))
		require.NoError(t, r.Ledger().Deposit(ctx, store, 100, user1, 1))
		return store
	}
	harvest := &Harvest{Asset: 1}
	withdraw := &Withdraw{Asset: 1}

	tests := map[string]chaintest.ActionTest{
		"Harvest": {
			Action:          harvest,
			Rules:           r,
			State:           scoped(r, harvest, user1, staked()),
			Height:          104,
			Actor:           user1,
			ExpectedOutputs: PackUint64Output(8),
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				bal, err := r.RewardToken().BalanceOf(ctx, mu, user1)
				require.NoError(err)
				require.Equal(uint64(18), bal)
				earned, err := r.Ledger().GetCurrentStakeEarned(ctx, mu, 104, 1)
				require.NoError(err)
				require.Zero(earned)
			},
		},
		"HarvestNotStaker": {
			Action:      harvest,
			Rules:       r,
			State:       scoped(r, harvest, user2, staked()),
			Height:      104,
			Actor:       user2,
			ExpectedErr: staking.ErrNotStaker,
		},
		"Withdraw": {
			Action:          withdraw,
			Rules:           r,
			State:           scoped(r, withdraw, user1, staked()),
			Height:          105,
			Actor:           user1,
			ExpectedOutputs: PackUint64Output(10),
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				owner, err := r.Collection().OwnerOf(ctx, mu, 1)
				require.NoError(err)
				require.Equal(user1, owner)
				receipt, err := r.Ledger().Receipt(ctx, mu, 1)
				require.NoError(err)
				require.Equal(staking.Receipt{}, receipt)
				bal, err := r.RewardToken().BalanceOf(ctx, mu, ledger)
				require.NoError(err)
				require.Equal(uint64(990), bal)
			},
		},
		"WithdrawNotStaker": {
			Action:      withdraw,
			Rules:       r,
			State:       scoped(r, withdraw, user2, staked()),
			Height:      105,
			Actor:       user2,
			ExpectedErr: staking.ErrNotStaker,
		},
	}

	suite := chaintest.ActionTestSuite{Tests: tests}
	suite.Run(t)
}

func TestMintAssetAction(t *testing.T) {
	r, newStore := newRules(t)
	mint := &MintAsset{To: user2, Asset: 3, Metadata: []byte("Third")}
	skipped := &MintAsset{To: user2, Asset: 5}

	tests := map[string]chaintest.ActionTest{
		"NotMinter": {
			Action:      mint,
			Rules:       r,
			State:       scoped(r, mint, user1, newStore()),
			Actor:       user1,
			ExpectedErr: ErrNotMinter,
		},
		"UnexpectedAssetID": {
			Action:      skipped,
			Rules:       r,
			State:       scoped(r, skipped, minter, newStore()),
			Actor:       minter,
			ExpectedErr: ErrUnexpectedAssetID,
		},
		"Mint": {
			Action:          mint,
			Rules:           r,
			State:           scoped(r, mint, minter, newStore()),
			Actor:           minter,
			ExpectedOutputs: PackUint64Output(3),
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				owner, err := r.Collection().OwnerOf(ctx, mu, 3)
				require.NoError(err)
				require.Equal(user2, owner)
				metadata, err := r.Collection().Metadata(ctx, mu, 3)
				require.NoError(err)
				require.Equal([]byte("Third"), metadata)
			},
		},
	}

	suite := chaintest.ActionTestSuite{Tests: tests}
	suite.Run(t)
}

func TestAssetApprovalActions(t *testing.T) {
	r, newStore := newRules(t)
	approve := &ApproveAsset{Owner: user1, Spender: user2, Asset: 1}
	approveOwner := &ApproveAsset{Owner: user1, Spender: user1, Asset: 1}
	operator := &SetApprovalForAll{Operator: user2, Approved: true}
	self := &SetApprovalForAll{Operator: user1, Approved: true}

	tests := map[string]chaintest.ActionTest{
		"Approve": {
			Action: approve,
			Rules:  r,
			State:  scoped(r, approve, user1, newStore()),
			Actor:  user1,
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				spender, err := r.Collection().GetApproved(ctx, mu, 1)
				require.NoError(err)
				require.Equal(user2, spender)
			},
		},
		"ApproveToOwner": {
			Action:      approveOwner,
			Rules:       r,
			State:       scoped(r, approveOwner, user1, newStore()),
			Actor:       user1,
			ExpectedErr: nft.ErrApprovalToOwner,
		},
		"ApproveNotAllowed": {
			Action:      approve,
			Rules:       r,
			State:       scoped(r, approve, user2, newStore()),
			Actor:       user2,
			ExpectedErr: nft.ErrApproveNotAllowed,
		},
		"SetApprovalForAll": {
			Action: operator,
			Rules:  r,
			State:  scoped(r, operator, user1, newStore()),
			Actor:  user1,
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				ok, err := r.Collection().IsApprovedForAll(ctx, mu, user1, user2)
				require.NoError(err)
				require.True(ok)
			},
		},
		"SetApprovalForAllToCaller": {
			Action:      self,
			Rules:       r,
			State:       scoped(r, self, user1, newStore()),
			Actor:       user1,
			ExpectedErr: nft.ErrApproveToCaller,
		},
	}

	suite := chaintest.ActionTestSuite{Tests: tests}
	suite.Run(t)
}

func TestTransferActions(t *testing.T) {
	r, newStore := newRules(t)
	transfer := &TransferAsset{From: user1, To: user2, Asset: 1}
	wrongFrom := &TransferAsset{From: user2, To: user2, Asset: 1}
	reward := &TransferReward{To: user2, Value: 4}
	zero := &TransferReward{To: user2}
	tooMuch := &TransferReward{To: user2, Value: 11}

	tests := map[string]chaintest.ActionTest{
		"TransferAsset": {
			Action: transfer,
			Rules:  r,
			State:  scoped(r, transfer, user1, newStore()),
			Actor:  user1,
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				owner, err := r.Collection().OwnerOf(ctx, mu, 1)
				require.NoError(err)
				require.Equal(user2, owner)
			},
		},
		"TransferAssetIncorrectOwner": {
			Action:      wrongFrom,
			Rules:       r,
			State:       scoped(r, wrongFrom, user1, newStore()),
			Actor:       user1,
			ExpectedErr: nft.ErrIncorrectOwner,
		},
		"TransferReward": {
			Action: reward,
			Rules:  r,
			State:  scoped(r, reward, user1, newStore()),
			Actor:  user1,
			Assertion: func(ctx context.Context, t *testing.T, mu state.Mutable) {
				require := require.New(t)
				bal, err := r.RewardToken().BalanceOf(ctx, mu, user1)
				require.NoError(err)
				require.Equal(uint64(6), bal)
				bal, err = r.RewardToken().BalanceOf(ctx, mu, user2)
				require.NoError(err)
				require.Equal(uint64(4), bal)
			},
		},
		"TransferRewardZero": {
			Action:      zero,
			Rules:       r,
			State:       scoped(r, zero, user1, newStore()),
			Actor:       user1,
			ExpectedErr: ErrOutputValueZero,
		},
		"TransferRewardInsufficient": {
			Action:      tooMuch,
			Rules:       r,
			State:       scoped(r, tooMuch, user1, newStore()),
			Actor:       user1,
			ExpectedErr: token.ErrInsufficientBalance,
		},
	}

	suite := chaintest.ActionTestSuite{Tests: tests}
	suite.Run(t)
}

func TestActionEncoding(t *testing.T) {
	require := require.New(t)

	parser := codec.NewTypeParser[chain.Action]()
	require.NoError(parser.Register(&Deposit{}, UnmarshalDeposit))
	require.NoError(parser.Register(&Harvest{}, UnmarshalHarvest))
	require.NoError(parser.Register(&Withdraw{}, UnmarshalWithdraw))
	require.NoError(parser.Register(&MintAsset{}, UnmarshalMintAsset))
	require.NoError(parser.Register(&ApproveAsset{}, UnmarshalApproveAsset))
	require.NoError(parser.Register(&SetApprovalForAll{}, UnmarshalSetApprovalForAll))
	require.NoError(parser.Register(&TransferAsset{}, UnmarshalTransferAsset))
	require.NoError(parser.Register(&TransferReward{}, UnmarshalTransferReward))

	for _, action := range []chain.Action{
		&Deposit{Assets: []uint64{1, 2, 3}},
		&Harvest{Asset: 1},
		&Withdraw{Asset: 2},
		&MintAsset{To: user1, Asset: 3, Metadata: []byte("Third")},
		&ApproveAsset{Owner: user1, Spender: user2, Asset: 1},
		&SetApprovalForAll{Operator: user2, Approved: true},
		&TransferAsset{From: user1, To: user2, Asset: 1},
		&TransferReward{To: user2, Value: 7},
	} {
		p := codec.NewWriter(consts.ByteLen+action.Size(), consts.NetworkSizeLimit)
		p.PackByte(action.GetTypeID())
		action.Marshal(p)
		require.NoError(p.Err())
		require.Len(p.Bytes(), consts.ByteLen+action.Size())

		decoded, err := parser.Unpack(codec.NewReader(p.Bytes(), consts.NetworkSizeLimit))
		require.NoError(err)
		require.Equal(action, decoded)
	}
}

func TestDepositRejectsEmptyList(t *testing.T) {
	require := require.New(t)

	p := codec.NewWriter(0, consts.NetworkSizeLimit)
	(&Deposit{}).Marshal(p)
	_, err := UnmarshalDeposit(codec.NewReader(p.Bytes(), consts.NetworkSizeLimit))
	require.ErrorIs(err, codec.ErrFieldNotPopulated)
}

func TestUint64Output(t *testing.T) {
	require := require.New(t)

	v, err := UnpackUint64Output(PackUint64Output(42))
	require.NoError(err)
	require.Equal(uint64(42), v)

	_, err = UnpackUint64Output([]byte{1})
	require.ErrorIs(err, ErrInvalidOutput)
}
