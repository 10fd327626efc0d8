// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/actions"
	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/cli/prompt"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/rpc"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/utils"
)

const confirmTimeout = 30 * time.Second

type session struct {
	cli     *rpc.JSONRPCClient
	factory chain.AuthFactory
	actor   codec.Address
}

func (h *Handler) session() (*session, error) {
	priv, addr, err := h.GetDefaultKey(true)
	if err != nil {
		return nil, err
	}
	_, uris, err := h.GetDefaultChain(true)
	if err != nil {
		return nil, err
	}
	return &session{
		cli:     rpc.NewJSONRPCClient(uris[0]),
		factory: auth.NewED25519Factory(priv),
		actor:   addr,
	}, nil
}

// send asks for confirmation, submits [action] and waits until the chain
// includes it. It returns false if the user declined.
func (h *Handler) send(s *session, action chain.Action) (bool, error) {
	cont, err := prompt.Continue()
	if err != nil || !cont {
		return false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
	defer cancel()

	tx, err := s.cli.GenerateAndSubmit(ctx, h.registry, action, s.factory)
	if err != nil {
		return false, err
	}
	reply, err := s.cli.WaitForTransaction(ctx, tx.ID())
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrTxDropped, tx.ID(), err)
	}
	printResult(tx.ID(), describeAction(action), reply.Success, reply.Error, reply.Output)
	if !reply.Success {
		return false, fmt.Errorf("%w: %s", ErrTxFailed, reply.Error)
	}
	return true, nil
}

func (h *Handler) Deposit() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	assets, err := prompt.Uint64s("assets (comma separated)", staking.MaxDepositAssets)
	if err != nil {
		return err
	}

	// The ledger takes custody through its operator approval.
	g, _, err := s.cli.Genesis(context.Background())
	if err != nil {
		return err
	}
	ledger := g.LedgerConfig().Address()
	approved, err := s.cli.IsApprovedForAll(context.Background(), s.actor, ledger)
	if err != nil {
		return err
	}
	if !approved {
		utils.Outf("{{yellow}}ledger %s is not an operator yet{{/}}\n", ledger)
		ok, err := h.send(s, &actions.SetApprovalForAll{Operator: ledger, Approved: true})
		if err != nil || !ok {
			return err
		}
	}
	_, err = h.send(s, &actions.Deposit{Assets: assets})
	return err
}

func (h *Handler) Harvest() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	asset, err := prompt.Uint64("asset", nil)
	if err != nil {
		return err
	}
	earned, height, err := s.cli.StakeEarned(context.Background(), asset)
	if err != nil {
		return err
	}
	utils.Outf("{{yellow}}earned:{{/}} %d {{yellow}}at height:{{/}} %d\n", earned, height)
	_, err = h.send(s, &actions.Harvest{Asset: asset})
	return err
}

func (h *Handler) Withdraw() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	asset, err := prompt.Uint64("asset", nil)
	if err != nil {
		return err
	}
	_, err = h.send(s, &actions.Withdraw{Asset: asset})
	return err
}

func (h *Handler) MintAsset() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	to, err := prompt.Address("recipient")
	if err != nil {
		return err
	}
	metadata, err := prompt.String("metadata", 0, nft.MaxMetadataSize)
	if err != nil {
		return err
	}
	asset, err := s.cli.NextAssetID(context.Background())
	if err != nil {
		return err
	}
	utils.Outf("{{yellow}}minting asset:{{/}} %d\n", asset)
	_, err = h.send(s, &actions.MintAsset{To: to, Asset: asset, Metadata: []byte(metadata)})
	return err
}

func (h *Handler) ApproveAsset() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	asset, err := prompt.Uint64("asset", nil)
	if err != nil {
		return err
	}
	owner, err := s.cli.OwnerOf(context.Background(), asset)
	if err != nil {
		return err
	}
	spender, err := prompt.Address("spender")
	if err != nil {
		return err
	}
	_, err = h.send(s, &actions.ApproveAsset{Owner: owner, Spender: spender, Asset: asset})
	return err
}

func (h *Handler) SetApprovalForAll() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	operator, err := prompt.Address("operator")
	if err != nil {
		return err
	}
	approved, err := prompt.Bool("approve")
	if err != nil {
		return err
	}
	_, err = h.send(s, &actions.SetApprovalForAll{Operator: operator, Approved: approved})
	return err
}

func (h *Handler) TransferAsset() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	asset, err := prompt.Uint64("asset", nil)
	if err != nil {
		return err
	}
	from, err := s.cli.OwnerOf(context.Background(), asset)
	if err != nil {
		return err
	}
	to, err := prompt.Address("recipient")
	if err != nil {
		return err
	}
	_, err = h.send(s, &actions.TransferAsset{From: from, To: to, Asset: asset})
	return err
}

func (h *Handler) TransferReward() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	balance, err := s.cli.Balance(context.Background(), s.actor)
	if err != nil {
		return err
	}
	utils.Outf("{{yellow}}balance:{{/}} %d\n", balance)
	to, err := prompt.Address("recipient")
	if err != nil {
		return err
	}
	value, err := prompt.Uint64("amount", func(v uint64) error {
		if v == 0 {
			return actions.ErrOutputValueZero
		}
		if v > balance {
			return fmt.Errorf("%d exceeds balance %d", v, balance)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_, err = h.send(s, &actions.TransferReward{To: to, Value: value})
	return err
}

// AssetInfo prints the ownership and staking state of an asset.
func (h *Handler) AssetInfo() error {
	s, err := h.session()
	if err != nil {
		return err
	}
	asset, err := prompt.Uint64("asset", nil)
	if err != nil {
		return err
	}
	ctx := context.Background()
	owner, err := s.cli.OwnerOf(ctx, asset)
	if err != nil {
		return err
	}
	approved, err := s.cli.GetApproved(ctx, asset)
	if err != nil {
		return err
	}
	metadata, err := s.cli.Metadata(ctx, asset)
	if err != nil {
		return err
	}
	utils.Outf(
		"{{cyan}}owner:{{/}} %s {{cyan}}approved:{{/}} %s {{cyan}}metadata:{{/}} %q\n",
		owner,
		approved,
		metadata,
	)
	receipt, err := s.cli.Receipt(ctx, asset)
	if err != nil {
		return err
	}
	if receipt.Owner.Empty() {
		utils.Outf("{{yellow}}not staked{{/}}\n")
		return nil
	}
	earned, height, err := s.cli.StakeEarned(ctx, asset)
	if err != nil {
		return err
	}
	utils.Outf(
		"{{cyan}}staked by:{{/}} %s {{cyan}}since height:{{/}} %d {{cyan}}earned:{{/}} %d {{cyan}}at height:{{/}} %d\n",
		receipt.Owner,
		receipt.StakedFrom,
		earned,
		height,
	)
	return nil
}

func describeAction(action chain.Action) string {
	switch a := action.(type) {
	case *actions.Deposit:
		return fmt.Sprintf("deposit assets %v", a.Assets)
	case *actions.Harvest:
		return fmt.Sprintf("harvest asset %d", a.Asset)
	case *actions.Withdraw:
		return fmt.Sprintf("withdraw asset %d", a.Asset)
	case *actions.MintAsset:
		return fmt.Sprintf("mint asset %d to %s", a.Asset, a.To)
	case *actions.ApproveAsset:
		return fmt.Sprintf("approve %s for asset %d", a.Spender, a.Asset)
	case *actions.SetApprovalForAll:
		return fmt.Sprintf("set operator %s approved=%t", a.Operator, a.Approved)
	case *actions.TransferAsset:
		return fmt.Sprintf("transfer asset %d from %s to %s", a.Asset, a.From, a.To)
	case *actions.TransferReward:
		return fmt.Sprintf("transfer %d to %s", a.Value, a.To)
	default:
		return fmt.Sprintf("action %d", action.GetTypeID())
	}
}

func printResult(txID ids.ID, desc string, success bool, errMsg string, output []byte) {
	if !success {
		utils.Outf("{{red}}%s{{/}} %s {{red}}failed:{{/}} %s\n", txID, desc, errMsg)
		return
	}
	if v, err := actions.UnpackUint64Output(output); err == nil {
		utils.Outf("{{green}}%s{{/}} %s {{green}}output:{{/}} %d\n", txID, desc, v)
		return
	}
	utils.Outf("{{green}}%s{{/}} %s\n", txID, desc)
}
