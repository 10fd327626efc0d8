// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/genesis"
)

type JSONRPCServer struct {
	vm VM
}

func NewJSONRPCServer(vm VM) *JSONRPCServer {
	return &JSONRPCServer{vm}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) (err error) {
	j.vm.Logger().Info("ping")
	reply.Success = true
	return nil
}

type GenesisReply struct {
	Genesis *genesis.Genesis `json:"genesis"`
	ChainID ids.ID           `json:"chainId"`
}

func (j *JSONRPCServer) Genesis(_ *http.Request, _ *struct{}, reply *GenesisReply) (err error) {
	reply.Genesis = j.vm.Genesis()
	reply.ChainID = j.vm.ChainID()
	return nil
}

type HeightReply struct {
	Height    uint64 `json:"height"`
	BlockID   ids.ID `json:"blockId"`
	Timestamp int64  `json:"timestamp"`
}

func (j *JSONRPCServer) Height(_ *http.Request, _ *struct{}, reply *HeightReply) error {
	blk := j.vm.LastAccepted()
	reply.Height = blk.Height
	reply.BlockID = blk.ID()
	reply.Timestamp = blk.Timestamp
	return nil
}

type BlockArgs struct {
	Height uint64 `json:"height"`
}

type BlockReply struct {
	BlockID ids.ID `json:"blockId"`
	Block   []byte `json:"block"`
}

func (j *JSONRPCServer) Block(_ *http.Request, args *BlockArgs, reply *BlockReply) error {
	blk, err := j.vm.GetBlock(args.Height)
	if err != nil {
		return err
	}
	reply.BlockID = blk.ID()
	reply.Block = blk.Bytes()
	return nil
}

type SubmitTxArgs struct {
	Tx []byte `json:"tx"`
}

type SubmitTxReply struct {
	TxID ids.ID `json:"txId"`
}

func (j *JSONRPCServer) SubmitTx(
	req *http.Request,
	args *SubmitTxArgs,
	reply *SubmitTxReply,
) error {
	ctx, span := j.vm.Tracer().Start(req.Context(), "JSONRPCServer.SubmitTx")
	defer span.End()

	tx, err := chain.ParseTx(args.Tx, j.vm.Registry())
	if err != nil {
		return fmt.Errorf("%w: unable to unmarshal on public service", err)
	}
	if err := j.vm.Submit(ctx, []*chain.Transaction{tx})[0]; err != nil {
		j.vm.Logger().Debug("rejected tx",
			zap.Stringer("txID", tx.ID()),
			zap.Error(err),
		)
		return err
	}
	reply.TxID = tx.ID()
	return nil
}

type TxArgs struct {
	TxID ids.ID `json:"txId"`
}

type TxReply struct {
	Found   bool   `json:"found"`
	Height  uint64 `json:"height"`
	Success bool   `json:"success"`
	Output  []byte `json:"output"`
	Error   string `json:"error"`
}

func (j *JSONRPCServer) TxResult(_ *http.Request, args *TxArgs, reply *TxReply) error {
	result, found, err := j.vm.GetTransaction(args.TxID)
	if err != nil || !found {
		return err
	}
	reply.Found = true
	reply.Height = result.Height
	reply.Success = result.Success
	reply.Output = result.Output
	reply.Error = result.Error
	return nil
}

type AssetArgs struct {
	Asset uint64 `json:"asset"`
}

type ReceiptReply struct {
	Staked     bool          `json:"staked"`
	Owner      codec.Address `json:"owner"`
	StakedFrom uint64        `json:"stakedFrom"`
}

func (j *JSONRPCServer) Receipt(req *http.Request, args *AssetArgs, reply *ReceiptReply) error {
	r, err := j.vm.Receipt(req.Context(), args.Asset)
	if err != nil {
		return err
	}
	reply.Staked = !r.Owner.Empty()
	reply.Owner = r.Owner
	reply.StakedFrom = r.StakedFrom
	return nil
}

type StakeEarnedReply struct {
	Earned uint64 `json:"earned"`
	Height uint64 `json:"height"`
}

func (j *JSONRPCServer) StakeEarned(req *http.Request, args *AssetArgs, reply *StakeEarnedReply) error {
	earned, height, err := j.vm.StakeEarned(req.Context(), args.Asset)
	if err != nil {
		return err
	}
	reply.Earned = earned
	reply.Height = height
	return nil
}

type RewardRateReply struct {
	Rate uint64 `json:"rate"`
}

func (j *JSONRPCServer) RewardRate(_ *http.Request, _ *struct{}, reply *RewardRateReply) error {
	reply.Rate = j.vm.RewardRate()
	return nil
}

type BalanceArgs struct {
	Address codec.Address `json:"address"`
}

type BalanceReply struct {
	Amount uint64 `json:"amount"`
}

func (j *JSONRPCServer) Balance(req *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	amount, err := j.vm.Balance(req.Context(), args.Address)
	if err != nil {
		return err
	}
	reply.Amount = amount
	return nil
}

type AddressReply struct {
	Address codec.Address `json:"address"`
}

func (j *JSONRPCServer) OwnerOf(req *http.Request, args *AssetArgs, reply *AddressReply) error {
	owner, err := j.vm.OwnerOf(req.Context(), args.Asset)
	if err != nil {
		return err
	}
	reply.Address = owner
	return nil
}

func (j *JSONRPCServer) GetApproved(req *http.Request, args *AssetArgs, reply *AddressReply) error {
	spender, err := j.vm.GetApproved(req.Context(), args.Asset)
	if err != nil {
		return err
	}
	reply.Address = spender
	return nil
}

type ApprovedForAllArgs struct {
	Owner    codec.Address `json:"owner"`
	Operator codec.Address `json:"operator"`
}

type ApprovedForAllReply struct {
	Approved bool `json:"approved"`
}

func (j *JSONRPCServer) IsApprovedForAll(
	req *http.Request,
	args *ApprovedForAllArgs,
	reply *ApprovedForAllReply,
) error {
	approved, err := j.vm.IsApprovedForAll(req.Context(), args.Owner, args.Operator)
	if err != nil {
		return err
	}
	reply.Approved = approved
	return nil
}

type MetadataReply struct {
	Metadata []byte `json:"metadata"`
}

func (j *JSONRPCServer) Metadata(req *http.Request, args *AssetArgs, reply *MetadataReply) error {
	metadata, err := j.vm.Metadata(req.Context(), args.Asset)
	if err != nil {
		return err
	}
	reply.Metadata = metadata
	return nil
}

type NextAssetIDReply struct {
	Asset uint64 `json:"asset"`
}

func (j *JSONRPCServer) NextAssetID(req *http.Request, _ *struct{}, reply *NextAssetIDReply) error {
	asset, err := j.vm.NextAssetID(req.Context())
	if err != nil {
		return err
	}
	reply.Asset = asset
	return nil
}
