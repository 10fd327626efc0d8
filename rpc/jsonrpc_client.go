// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/genesis"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/utils"
)

const waitSleep = 500 * time.Millisecond

type JSONRPCClient struct {
	requester *EndpointRequester

	g       *genesis.Genesis
	chainID ids.ID
}

func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	req := NewEndpointRequester(uri, Name)
	return &JSONRPCClient{requester: req}
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.requester.SendRequest(ctx,
		"ping",
		nil,
		resp,
	)
	return resp.Success, err
}

// Genesis is cached after the first successful call.
func (cli *JSONRPCClient) Genesis(ctx context.Context) (*genesis.Genesis, ids.ID, error) {
	if cli.g != nil {
		return cli.g, cli.chainID, nil
	}

	resp := new(GenesisReply)
	err := cli.requester.SendRequest(
		ctx,
		"genesis",
		nil,
		resp,
	)
	if err != nil {
		return nil, ids.Empty, err
	}
	cli.g = resp.Genesis
	cli.chainID = resp.ChainID
	return resp.Genesis, resp.ChainID, nil
}

func (cli *JSONRPCClient) Height(ctx context.Context) (uint64, ids.ID, int64, error) {
	resp := new(HeightReply)
	err := cli.requester.SendRequest(
		ctx,
		"height",
		nil,
		resp,
	)
	return resp.Height, resp.BlockID, resp.Timestamp, err
}

func (cli *JSONRPCClient) Block(ctx context.Context, height uint64, registry chain.Registry) (*chain.Block, error) {
	resp := new(BlockReply)
	err := cli.requester.SendRequest(
		ctx,
		"block",
		&BlockArgs{Height: height},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return chain.UnmarshalBlock(resp.Block, registry)
}

func (cli *JSONRPCClient) SubmitTx(ctx context.Context, d []byte) (ids.ID, error) {
	resp := new(SubmitTxReply)
	err := cli.requester.SendRequest(
		ctx,
		"submitTx",
		&SubmitTxArgs{Tx: d},
		resp,
	)
	return resp.TxID, err
}

// GenerateTransaction signs [action] with [factory]. The transaction expires
// at the end of the chain's validity window.
func (cli *JSONRPCClient) GenerateTransaction(
	ctx context.Context,
	registry chain.Registry,
	action chain.Action,
	factory chain.AuthFactory,
) (*chain.Transaction, error) {
	g, chainID, err := cli.Genesis(ctx)
	if err != nil {
		return nil, err
	}
	base := &chain.Base{
		Timestamp: utils.UnixRMilli(-1, g.ValidityWindow/2),
		ChainID:   chainID,
	}
	return chain.NewTx(base, action).Sign(factory, registry)
}

// GenerateAndSubmit signs [action] and submits it.
func (cli *JSONRPCClient) GenerateAndSubmit(
	ctx context.Context,
	registry chain.Registry,
	action chain.Action,
	factory chain.AuthFactory,
) (*chain.Transaction, error) {
	tx, err := cli.GenerateTransaction(ctx, registry, action, factory)
	if err != nil {
		return nil, err
	}
	if _, err := cli.SubmitTx(ctx, tx.Bytes()); err != nil {
		return nil, err
	}
	return tx, nil
}

func (cli *JSONRPCClient) TxResult(ctx context.Context, txID ids.ID) (*TxReply, error) {
	resp := new(TxReply)
	err := cli.requester.SendRequest(
		ctx,
		"txResult",
		&TxArgs{TxID: txID},
		resp,
	)
	return resp, err
}

// WaitForTransaction polls until [txID] is accepted or [ctx] is done.
func (cli *JSONRPCClient) WaitForTransaction(ctx context.Context, txID ids.ID) (*TxReply, error) {
	ticker := time.NewTicker(waitSleep)
	defer ticker.Stop()

	for {
		resp, err := cli.TxResult(ctx, txID)
		if err != nil {
			return nil, err
		}
		if resp.Found {
			return resp, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (cli *JSONRPCClient) Receipt(ctx context.Context, asset uint64) (staking.Receipt, error) {
	resp := new(ReceiptReply)
	err := cli.requester.SendRequest(
		ctx,
		"receipt",
		&AssetArgs{Asset: asset},
		resp,
	)
	return staking.Receipt{Owner: resp.Owner, StakedFrom: resp.StakedFrom}, err
}

func (cli *JSONRPCClient) StakeEarned(ctx context.Context, asset uint64) (uint64, uint64, error) {
	resp := new(StakeEarnedReply)
	err := cli.requester.SendRequest(
		ctx,
		"stakeEarned",
		&AssetArgs{Asset: asset},
		resp,
	)
	return resp.Earned, resp.Height, err
}

func (cli *JSONRPCClient) RewardRate(ctx context.Context) (uint64, error) {
	resp := new(RewardRateReply)
	err := cli.requester.SendRequest(
		ctx,
		"rewardRate",
		nil,
		resp,
	)
	return resp.Rate, err
}

func (cli *JSONRPCClient) Balance(ctx context.Context, addr codec.Address) (uint64, error) {
	resp := new(BalanceReply)
	err := cli.requester.SendRequest(
		ctx,
		"balance",
		&BalanceArgs{Address: addr},
		resp,
	)
	return resp.Amount, err
}

func (cli *JSONRPCClient) OwnerOf(ctx context.Context, asset uint64) (codec.Address, error) {
	resp := new(AddressReply)
	err := cli.requester.SendRequest(
		ctx,
		"ownerOf",
		&AssetArgs{Asset: asset},
		resp,
	)
	return resp.Address, err
}

func (cli *JSONRPCClient) GetApproved(ctx context.Context, asset uint64) (codec.Address, error) {
	resp := new(AddressReply)
	err := cli.requester.SendRequest(
		ctx,
		"getApproved",
		&AssetArgs{Asset: asset},
		resp,
	)
	return resp.Address, err
}

func (cli *JSONRPCClient) IsApprovedForAll(
	ctx context.Context,
	owner codec.Address,
	operator codec.Address,
) (bool, error) {
	resp := new(ApprovedForAllReply)
	err := cli.requester.SendRequest(
		ctx,
		"isApprovedForAll",
		&ApprovedForAllArgs{Owner: owner, Operator: operator},
		resp,
	)
	return resp.Approved, err
}

func (cli *JSONRPCClient) Metadata(ctx context.Context, asset uint64) ([]byte, error) {
	resp := new(MetadataReply)
	err := cli.requester.SendRequest(
		ctx,
		"metadata",
		&AssetArgs{Asset: asset},
		resp,
	)
	return resp.Metadata, err
}

func (cli *JSONRPCClient) NextAssetID(ctx context.Context) (uint64, error) {
	resp := new(NextAssetIDReply)
	err := cli.requester.SendRequest(
		ctx,
		"nextAssetID",
		nil,
		resp,
	)
	return resp.Asset, err
}
