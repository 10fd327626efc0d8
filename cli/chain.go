// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/units"

	"github.com/ava-labs/stakevm/cli/prompt"
	"github.com/ava-labs/stakevm/rpc"
	"github.com/ava-labs/stakevm/utils"
)

var errNodeUnhealthy = errors.New("node did not answer ping")

// ImportChain asks the node at [uri] which chain it serves and stores it as
// the default chain.
func (h *Handler) ImportChain(uri string) error {
	uri = strings.TrimSuffix(strings.TrimSpace(uri), "/")
	cli := rpc.NewJSONRPCClient(uri)
	ok, err := cli.Ping(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", errNodeUnhealthy, uri)
	}
	_, chainID, err := cli.Genesis(context.Background())
	if err != nil {
		return err
	}
	if err := h.StoreChain(chainID, uri); err != nil {
		return err
	}
	utils.Outf("{{yellow}}stored chainID:{{/}} %s {{yellow}}uri:{{/}} %s\n", chainID, uri)
	return h.StoreDefaultChain(chainID)
}

// PromptChain lists the known chains and returns the selected one. Chains
// in [excluded] are not offered.
func (h *Handler) PromptChain(label string, excluded []ids.ID) (ids.ID, []string, error) {
	chains, err := h.GetChains()
	if err != nil {
		return ids.Empty, nil, err
	}
	filtered := make([]ids.ID, 0, len(chains))
	for chainID := range chains {
		skip := false
		for _, e := range excluded {
			if e == chainID {
				skip = true
				break
			}
		}
		if !skip {
			filtered = append(filtered, chainID)
		}
	}
	if len(filtered) == 0 {
		return ids.Empty, nil, ErrNoChains
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Compare(filtered[j]) < 0
	})

	utils.Outf("{{cyan}}available chains:{{/}} %d\n", len(filtered))
	for i, chainID := range filtered {
		utils.Outf("%d) {{cyan}}chainID:{{/}} %s {{cyan}}uris:{{/}} %s\n", i, chainID, strings.Join(chains[chainID], ", "))
	}
	index, err := prompt.Choice(label, len(filtered))
	if err != nil {
		return ids.Empty, nil, err
	}
	chainID := filtered[index]
	return chainID, chains[chainID], nil
}

func (h *Handler) SetDefaultChain() error {
	chainID, _, err := h.PromptChain("set default chain", nil)
	if err != nil {
		return err
	}
	return h.StoreDefaultChain(chainID)
}

func (h *Handler) PrintChainInfo() error {
	_, uris, err := h.GetDefaultChain(true)
	if err != nil {
		return err
	}
	cli := rpc.NewJSONRPCClient(uris[0])
	g, _, err := cli.Genesis(context.Background())
	if err != nil {
		return err
	}
	height, blkID, timestamp, err := cli.Height(context.Background())
	if err != nil {
		return err
	}
	rate, err := cli.RewardRate(context.Background())
	if err != nil {
		return err
	}
	next, err := cli.NextAssetID(context.Background())
	if err != nil {
		return err
	}
	utils.Outf(
		"{{cyan}}network:{{/}} %s {{cyan}}collection:{{/}} %s {{cyan}}reward token:{{/}} %s {{cyan}}reward rate:{{/}} %d\n",
		g.NetworkName,
		g.CollectionName,
		g.RewardTokenName,
		rate,
	)
	utils.Outf(
		"{{cyan}}height:{{/}} %d {{cyan}}blockID:{{/}} %s {{cyan}}timestamp:{{/}} %s {{cyan}}next asset:{{/}} %d\n",
		height,
		blkID,
		time.UnixMilli(timestamp).UTC().Format(time.RFC3339),
		next,
	)
	return nil
}

// WatchChain prints every block accepted by the default chain until [ctx]
// is done.
func (h *Handler) WatchChain(ctx context.Context, hideTxs bool) error {
	chainID, uris, err := h.GetDefaultChain(true)
	if err != nil {
		return err
	}
	utils.Outf("{{yellow}}uri:{{/}} %s\n", uris[0])
	scli, err := rpc.NewWebSocketClient(uris[0])
	if err != nil {
		return err
	}
	defer scli.Close()
	if err := scli.RegisterBlocks(); err != nil {
		return err
	}
	utils.Outf("{{green}}watching for new blocks on %s{{/}}\n", chainID)

	var (
		start     time.Time
		lastBlock time.Time
		totalTxs  int
	)
	for {
		blk, err := scli.ListenBlock(ctx, h.registry)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		now := time.Now()
		if start.IsZero() {
			start = now
		}
		totalTxs += len(blk.Block.Txs)
		tps := 0.0
		if elapsed := now.Sub(start).Seconds(); elapsed > 0 {
			tps = float64(totalTxs) / elapsed
		}
		gap := int64(0)
		if !lastBlock.IsZero() {
			gap = now.Sub(lastBlock).Milliseconds()
		}
		utils.Outf(
			"{{green}}height:{{/}}%d {{green}}txs:{{/}}%d {{green}}size:{{/}}%.2fKB [{{green}}TPS:{{/}}%.2f {{green}}latency:{{/}}%dms {{green}}gap:{{/}}%dms]\n",
			blk.Block.Height,
			len(blk.Block.Txs),
			float64(len(blk.Block.Bytes()))/units.KiB,
			tps,
			now.UnixMilli()-blk.Block.Timestamp,
			gap,
		)
		lastBlock = now
		if hideTxs {
			continue
		}
		for i, tx := range blk.Block.Txs {
			printResult(tx.ID(), describeAction(tx.Action), blk.Results[i].Success, string(blk.Results[i].Error), blk.Results[i].Output)
		}
	}
}
