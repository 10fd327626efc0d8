// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/nft"
	"github.com/ava-labs/stakevm/staking"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/token"
)

const (
	DefaultCollectionName  = "MockERC721"
	DefaultRewardTokenName = "MockERC20"
	DefaultRewardRate      = 2
	DefaultValidityWindow  = 60_000
)

type CustomAllocation struct {
	Address codec.Address `json:"address"`
	Balance uint64        `json:"balance"`
}

// InitialAsset is minted into the collection when the chain starts, in the
// order listed, so the first entry becomes asset 1.
type InitialAsset struct {
	Owner    codec.Address `json:"owner"`
	Metadata string        `json:"metadata"`
}

type Genesis struct {
	NetworkName string `json:"networkName"`
	// Timestamp of the genesis block in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// ValidityWindow is the furthest in the future (in milliseconds) a
	// transaction may expire.
	ValidityWindow int64 `json:"validityWindow"`

	// Minter is the only account allowed to mint new assets.
	Minter codec.Address `json:"minter"`

	CollectionName  string        `json:"nft"`
	RewardTokenName string        `json:"erc20"`
	Authority       codec.Address `json:"dao"`
	RewardRate      uint64        `json:"reward"`

	CustomAllocation []*CustomAllocation `json:"customAllocation"`
	// LedgerFunding is credited to the ledger so it can pay rewards.
	LedgerFunding uint64          `json:"ledgerFunding"`
	Assets        []*InitialAsset `json:"assets"`
}

func NewDefaultGenesis(minter codec.Address, customAllocations []*CustomAllocation) *Genesis {
	return &Genesis{
		NetworkName:      "stakevm",
		ValidityWindow:   DefaultValidityWindow,
		Minter:           minter,
		CollectionName:   DefaultCollectionName,
		RewardTokenName:  DefaultRewardTokenName,
		RewardRate:       DefaultRewardRate,
		CustomAllocation: customAllocations,
	}
}

// Load parses and verifies a JSON genesis.
func Load(b []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := json.Unmarshal(b, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGenesis, err)
	}
	if err := g.Verify(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Genesis) Verify() error {
	switch {
	case g.ValidityWindow <= 0:
		return fmt.Errorf("%w: validity window must be positive", ErrInvalidGenesis)
	case g.Minter.Empty():
		return fmt.Errorf("%w: minter is empty", ErrInvalidGenesis)
	case len(g.CollectionName) == 0 || len(g.RewardTokenName) == 0:
		return fmt.Errorf("%w: contract names must be set", ErrInvalidGenesis)
	}
	for i, alloc := range g.CustomAllocation {
		if alloc.Address.Empty() {
			return fmt.Errorf("%w: allocation %d has no address", ErrInvalidGenesis, i)
		}
	}
	for i, asset := range g.Assets {
		if asset.Owner.Empty() {
			return fmt.Errorf("%w: asset %d has no owner", ErrInvalidGenesis, i)
		}
		if len(asset.Metadata) > nft.MaxMetadataSize {
			return fmt.Errorf("%w: asset %d metadata is too large", ErrInvalidGenesis, i)
		}
	}
	return g.LedgerConfig().Verify()
}

// LedgerConfig is the configuration of the ledger the chain runs.
func (g *Genesis) LedgerConfig() staking.Config {
	return staking.Config{
		Collection:  nft.Address(g.CollectionName),
		RewardToken: token.Address(g.RewardTokenName),
		Authority:   g.Authority,
		RewardRate:  g.RewardRate,
	}
}

func (g *Genesis) Bytes() ([]byte, error) {
	return json.Marshal(g)
}

// Digest identifies the genesis. It is also used as the chain id.
func (g *Genesis) Digest() (ids.ID, error) {
	b, err := g.Bytes()
	if err != nil {
		return ids.Empty, err
	}
	return hashing.ComputeHash256Array(b), nil
}

// Rules builds the contracts described by the genesis.
func (g *Genesis) Rules(log logging.Logger, registerer prometheus.Registerer) (*Rules, error) {
	chainID, err := g.Digest()
	if err != nil {
		return nil, err
	}
	collection := nft.New(nft.Address(g.CollectionName))
	rewardToken := token.New(token.Address(g.RewardTokenName))
	metrics, err := staking.NewMetrics(registerer)
	if err != nil {
		return nil, err
	}
	ledger, err := staking.New(log, g.LedgerConfig(), collection, rewardToken, metrics)
	if err != nil {
		return nil, err
	}
	return &Rules{
		chainID:        chainID,
		validityWindow: g.ValidityWindow,
		minter:         g.Minter,
		collection:     collection,
		rewardToken:    rewardToken,
		ledger:         ledger,
	}, nil
}

// InitializeState credits the allocations and the ledger funding and mints
// the initial assets.
func (g *Genesis) InitializeState(ctx context.Context, log logging.Logger, mu state.Mutable, r *Rules) error {
	for _, alloc := range g.CustomAllocation {
		if err := r.rewardToken.Mint(ctx, mu, alloc.Address, alloc.Balance); err != nil {
			return fmt.Errorf("%w: addr=%s, bal=%d", err, alloc.Address, alloc.Balance)
		}
	}
	if g.LedgerFunding > 0 {
		if err := r.rewardToken.Mint(ctx, mu, r.ledger.Address(), g.LedgerFunding); err != nil {
			return fmt.Errorf("%w: ledger funding %d", err, g.LedgerFunding)
		}
	}
	for _, asset := range g.Assets {
		id, err := r.collection.Mint(ctx, mu, asset.Owner, []byte(asset.Metadata))
		if err != nil {
			return fmt.Errorf("%w: owner=%s", err, asset.Owner)
		}
		log.Debug("minted genesis asset",
			zap.Uint64("asset", id),
			zap.Stringer("owner", asset.Owner),
		)
	}
	log.Info("initialized genesis state",
		zap.Int("allocations", len(g.CustomAllocation)),
		zap.Int("assets", len(g.Assets)),
		zap.Uint64("ledgerFunding", g.LedgerFunding),
	)
	return nil
}
