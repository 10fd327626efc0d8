// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"os"
	"strings"

	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/cli/prompt"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/crypto/ed25519"
	"github.com/ava-labs/stakevm/rpc"
	"github.com/ava-labs/stakevm/utils"
)

func (h *Handler) GenerateKey() error {
	priv, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return err
	}
	return h.storeAndSetDefault(priv)
}

// ImportKey accepts either a file written by [ed25519.PrivateKey.Save] or a
// hex encoded key.
func (h *Handler) ImportKey(keyPathOrHex string) error {
	var (
		priv ed25519.PrivateKey
		err  error
	)
	if _, statErr := os.Stat(keyPathOrHex); statErr == nil {
		priv, err = ed25519.LoadKey(keyPathOrHex)
	} else {
		priv, err = ed25519.HexToPrivateKey(strings.TrimPrefix(keyPathOrHex, "0x"))
	}
	if err != nil {
		return err
	}
	return h.storeAndSetDefault(priv)
}

func (h *Handler) storeAndSetDefault(priv ed25519.PrivateKey) error {
	if err := h.StoreKey(priv); err != nil {
		return err
	}
	addr := auth.NewED25519Address(priv.PublicKey())
	if err := h.StoreDefaultKey(addr); err != nil {
		return err
	}
	utils.Outf(
		"{{green}}stored key:{{/}} %s {{green}}(%s){{/}}\n",
		addr,
		codec.MustAddressBech32(consts.HRP, addr),
	)
	return nil
}

func (h *Handler) ExportKey(path string) error {
	priv, addr, err := h.GetDefaultKey(true)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		utils.Outf("{{yellow}}private key:{{/}} %s\n", priv.Hex())
		return nil
	}
	if err := priv.Save(path); err != nil {
		return err
	}
	utils.Outf("{{green}}exported key for %s to:{{/}} %s\n", addr, path)
	return nil
}

func (h *Handler) SetKey() error {
	keys, err := h.GetKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return ErrNoKeys
	}
	_, uris, err := h.GetDefaultChain(true)
	if err != nil {
		return err
	}
	cli := rpc.NewJSONRPCClient(uris[0])
	utils.Outf("{{cyan}}stored keys:{{/}} %d\n", len(keys))
	for i, priv := range keys {
		addr := auth.NewED25519Address(priv.PublicKey())
		balance, err := cli.Balance(context.Background(), addr)
		if err != nil {
			return err
		}
		utils.Outf(
			"%d) {{cyan}}address:{{/}} %s {{cyan}}balance:{{/}} %d\n",
			i,
			addr,
			balance,
		)
	}

	keyIndex, err := prompt.Choice("set default key", len(keys))
	if err != nil {
		return err
	}
	return h.StoreDefaultKey(auth.NewED25519Address(keys[keyIndex].PublicKey()))
}

// Balance prints the reward token balance of the default key on the first
// uri of the default chain, or on all of them when [checkAllURIs] is set.
func (h *Handler) Balance(checkAllURIs bool) error {
	_, addr, err := h.GetDefaultKey(true)
	if err != nil {
		return err
	}
	_, uris, err := h.GetDefaultChain(true)
	if err != nil {
		return err
	}

	maxURIs := len(uris)
	if !checkAllURIs {
		maxURIs = 1
	}
	for _, uri := range uris[:maxURIs] {
		utils.Outf("{{yellow}}uri:{{/}} %s\n", uri)
		balance, err := rpc.NewJSONRPCClient(uri).Balance(context.Background(), addr)
		if err != nil {
			return err
		}
		utils.Outf("{{cyan}}address:{{/}} %s {{cyan}}balance:{{/}} %d\n", addr, balance)
	}
	return nil
}
