// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/actions"
	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/crypto/ed25519"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/state/statetest"
	"github.com/ava-labs/stakevm/storage"
	"github.com/ava-labs/stakevm/token"
	"github.com/ava-labs/stakevm/trace"
)

const genesisTime = int64(1_000_000)

type dbState struct {
	db database.KeyValueReader
}

func (s dbState) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return s.db.Get(key)
}

type processorEnv struct {
	processor *chain.Processor
	rules     *genesis.Rules
	registry  chain.Registry
	db        database.Database
	parent    chain.Parent

	user1 chain.AuthFactory
	addr1 codec.Address
	user2 chain.AuthFactory
	addr2 codec.Address
}

func newRegistry(t *testing.T) chain.Registry {
	require := require.New(t)

	actionParser := codec.NewTypeParser[chain.Action]()
	authParser := codec.NewTypeParser[chain.Auth]()
	require.NoError(actionParser.Register(&actions.Deposit{}, actions.UnmarshalDeposit))
	require.NoError(actionParser.Register(&actions.SetApprovalForAll{}, actions.UnmarshalSetApprovalForAll))
	require.NoError(actionParser.Register(&actions.TransferReward{}, actions.UnmarshalTransferReward))
	require.NoError(authParser.Register(&auth.ED25519{}, auth.UnmarshalED25519))
	return chain.NewRegistry(actionParser, authParser)
}

func newProcessorEnv(t *testing.T) *processorEnv {
	require := require.New(t)
	ctx := context.Background()

	priv1, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	priv2, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	e := &processorEnv{
		registry: newRegistry(t),
		db:       memdb.New(),
		user1:    auth.NewED25519Factory(priv1),
		addr1:    auth.NewED25519Address(priv1.PublicKey()),
		user2:    auth.NewED25519Factory(priv2),
		addr2:    auth.NewED25519Address(priv2.PublicKey()),
	}

	g := genesis.NewDefaultGenesis(e.addr1, []*genesis.CustomAllocation{
		{Address: e.addr1, Balance: 10},
	})
	g.Timestamp = genesisTime
	g.LedgerFunding = 100
	g.Assets = []*genesis.InitialAsset{{Owner: e.addr1, Metadata: "First"}}
	e.rules, err = g.Rules(logging.NoLog{}, prometheus.NewRegistry())
	require.NoError(err)

	store := statetest.NewInMemoryStore()
	require.NoError(g.InitializeState(ctx, logging.NoLog{}, store, e.rules))
	for k, v := range store.Storage {
		require.NoError(e.db.Put([]byte(k), v))
	}

	e.processor, err = chain.NewProcessor(
		logging.NoLog{},
		trace.Noop("test"),
		e.rules,
		auth.Engines(),
		2,
		prometheus.NewRegistry(),
	)
	require.NoError(err)
	e.parent = chain.Parent{
		ID:        ids.GenerateTestID(),
		Height:    0,
		Timestamp: genesisTime,
	}
	return e
}

func (e *processorEnv) sign(t *testing.T, factory chain.AuthFactory, expiry int64, action chain.Action) *chain.Transaction {
	base := &chain.Base{
		Timestamp: expiry,
		ChainID:   e.rules.GetChainID(),
	}
	tx, err := chain.NewTx(base, action).Sign(factory, e.registry)
	require.NoError(t, err)
	return tx
}

func (e *processorEnv) block(t *testing.T, txs ...*chain.Transaction) *chain.Block {
	blk, err := chain.NewBlock(e.parent.ID, e.parent.Height+1, genesisTime+1_000, txs)
	require.NoError(t, err)
	return blk
}

func TestExecuteBlock(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newProcessorEnv(t)
	ledger := e.rules.Ledger().Address()
	expiry := genesisTime + 2_000

	blk := e.block(t,
		e.sign(t, e.user1, expiry, &actions.SetApprovalForAll{Operator: ledger, Approved: true}),
		e.sign(t, e.user1, expiry, &actions.Deposit{Assets: []uint64{1}}),
	)
	executed, ts, err := e.processor.Execute(ctx, e.db, e.parent, blk)
	require.NoError(err)
	require.Len(executed.Results, 2)
	for i, result := range executed.Results {
		require.Equal(blk.Txs[i].ID(), result.TxID)
		require.True(result.Success, string(result.Error))
	}

	// Nothing is written until the changes are flushed
	receipt, err := e.rules.Ledger().Receipt(ctx, dbState{e.db}, 1)
	require.NoError(err)
	require.True(receipt.Owner.Empty())

	require.NoError(ts.WriteChanges(ctx, e.db))
	receipt, err = e.rules.Ledger().Receipt(ctx, dbState{e.db}, 1)
	require.NoError(err)
	require.Equal(e.addr1, receipt.Owner)
	require.Equal(uint64(1), receipt.StakedFrom)
	owner, err := e.rules.Collection().OwnerOf(ctx, dbState{e.db}, 1)
	require.NoError(err)
	require.Equal(ledger, owner)
}

func TestExecuteFailedTransaction(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newProcessorEnv(t)
	expiry := genesisTime + 2_000

	blk := e.block(t,
		// user2 holds nothing
		e.sign(t, e.user2, expiry, &actions.TransferReward{To: e.addr1, Value: 1}),
		e.sign(t, e.user1, expiry, &actions.TransferReward{To: e.addr2, Value: 4}),
	)
	executed, ts, err := e.processor.Execute(ctx, e.db, e.parent, blk)
	require.NoError(err)
	require.False(executed.Results[0].Success)
	require.Contains(string(executed.Results[0].Error), token.ErrInsufficientBalance.Error())
	require.Empty(executed.Results[0].Output)
	require.True(executed.Results[1].Success)

	require.NoError(ts.WriteChanges(ctx, e.db))
	bal, err := e.rules.RewardToken().BalanceOf(ctx, dbState{e.db}, e.addr1)
	require.NoError(err)
	require.Equal(uint64(6), bal)
	bal, err = e.rules.RewardToken().BalanceOf(ctx, dbState{e.db}, e.addr2)
	require.NoError(err)
	require.Equal(uint64(4), bal)
}

func TestExecuteInvalidBlock(t *testing.T) {
	ctx := context.Background()
	expiry := genesisTime + 2_000

	tests := []struct {
		name        string
		block       func(*testing.T, *processorEnv) *chain.Block
		expectedErr error
	}{
		{
			name: "wrong parent",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				blk, err := chain.NewBlock(ids.GenerateTestID(), 1, genesisTime, nil)
				require.NoError(t, err)
				return blk
			},
			expectedErr: chain.ErrInvalidParent,
		},
		{
			name: "wrong height",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				blk, err := chain.NewBlock(e.parent.ID, 2, genesisTime, nil)
				require.NoError(t, err)
				return blk
			},
			expectedErr: chain.ErrInvalidHeight,
		},
		{
			name: "timestamp before parent",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				blk, err := chain.NewBlock(e.parent.ID, 1, genesisTime-1, nil)
				require.NoError(t, err)
				return blk
			},
			expectedErr: chain.ErrBlockTimestamp,
		},
		{
			name: "duplicate tx",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				tx := e.sign(t, e.user1, expiry, &actions.TransferReward{To: e.addr2, Value: 1})
				return e.block(t, tx, tx)
			},
			expectedErr: chain.ErrDuplicateTx,
		},
		{
			name: "replayed tx",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				tx := e.sign(t, e.user1, expiry, &actions.TransferReward{To: e.addr2, Value: 1})
				require.NoError(t, storage.StoreTransaction(e.db, tx.ID(), 1, true, nil, ""))
				return e.block(t, tx)
			},
			expectedErr: chain.ErrDuplicateTx,
		},
		{
			name: "expired tx",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				tx := e.sign(t, e.user1, genesisTime+999, &actions.TransferReward{To: e.addr2, Value: 1})
				return e.block(t, tx)
			},
			expectedErr: chain.ErrTimestampTooLate,
		},
		{
			name: "tx beyond validity window",
			block: func(t *testing.T, e *processorEnv) *chain.Block {
				tx := e.sign(t, e.user1, genesisTime+1_000+genesis.DefaultValidityWindow+1, &actions.TransferReward{To: e.addr2, Value: 1})
				return e.block(t, tx)
			},
			expectedErr: chain.ErrTimestampTooEarly,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			e := newProcessorEnv(t)

			_, _, err := e.processor.Execute(ctx, e.db, e.parent, tt.block(t, e))
			require.ErrorIs(err, tt.expectedErr)
		})
	}
}

func TestPreExecuteWrongChain(t *testing.T) {
	require := require.New(t)
	e := newProcessorEnv(t)

	base := &chain.Base{
		Timestamp: genesisTime + 2_000,
		ChainID:   ids.GenerateTestID(),
	}
	tx, err := chain.NewTx(base, &actions.TransferReward{To: e.addr2, Value: 1}).Sign(e.user1, e.registry)
	require.NoError(err)
	require.ErrorIs(e.processor.PreExecute(e.db, tx, genesisTime), chain.ErrInvalidChainID)
}

func TestVerifySignatures(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newProcessorEnv(t)

	txs := make([]*chain.Transaction, 0, 8)
	for i := uint64(0); i < 8; i++ {
		txs = append(txs, e.sign(t, e.user1, genesisTime+2_000, &actions.TransferReward{To: e.addr2, Value: i}))
	}
	require.NoError(e.processor.VerifySignatures(ctx, txs))
}
