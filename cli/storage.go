// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stakevm/auth"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/crypto/ed25519"
	"github.com/ava-labs/stakevm/utils"
)

const (
	defaultPrefix = 0x0
	keyPrefix     = 0x1
	chainPrefix   = 0x2

	defaultKeyKey   = "key"
	defaultChainKey = "chain"
)

func (h *Handler) StoreDefault(key string, value []byte) error {
	k := make([]byte, 1+len(key))
	k[0] = defaultPrefix
	copy(k[1:], []byte(key))
	return h.db.Put(k, value)
}

func (h *Handler) GetDefault(key string) ([]byte, error) {
	k := make([]byte, 1+len(key))
	k[0] = defaultPrefix
	copy(k[1:], []byte(key))
	v, err := h.db.Get(k)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (h *Handler) StoreDefaultChain(chainID ids.ID) error {
	return h.StoreDefault(defaultChainKey, chainID[:])
}

func (h *Handler) GetDefaultChain(log bool) (ids.ID, []string, error) {
	v, err := h.GetDefault(defaultChainKey)
	if err != nil {
		return ids.Empty, nil, err
	}
	if len(v) == 0 {
		return ids.Empty, nil, ErrNoChains
	}
	chainID, err := ids.ToID(v)
	if err != nil {
		return ids.Empty, nil, err
	}
	uris, err := h.GetChain(chainID)
	if err != nil {
		return ids.Empty, nil, err
	}
	if len(uris) == 0 {
		return ids.Empty, nil, ErrNoChains
	}
	if log {
		utils.Outf("{{yellow}}chainID:{{/}} %s\n", chainID)
	}
	return chainID, uris, nil
}

func keyStorageKey(addr codec.Address) []byte {
	k := make([]byte, 1+codec.AddressLen)
	k[0] = keyPrefix
	copy(k[1:], addr[:])
	return k
}

// StoreKey fails with [ErrDuplicate] if [privateKey] is already stored.
func (h *Handler) StoreKey(privateKey ed25519.PrivateKey) error {
	k := keyStorageKey(auth.NewED25519Address(privateKey.PublicKey()))
	has, err := h.db.Has(k)
	if err != nil {
		return err
	}
	if has {
		return ErrDuplicate
	}
	return h.db.Put(k, privateKey[:])
}

// GetKey returns false if no key controls [addr].
func (h *Handler) GetKey(addr codec.Address) (ed25519.PrivateKey, bool, error) {
	v, err := h.db.Get(keyStorageKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return ed25519.EmptyPrivateKey, false, nil
	}
	if err != nil {
		return ed25519.EmptyPrivateKey, false, err
	}
	if len(v) != ed25519.PrivateKeyLen {
		return ed25519.EmptyPrivateKey, false, fmt.Errorf("%w: stored key for %s", ed25519.ErrInvalidPrivateKey, addr)
	}
	return ed25519.PrivateKey(v), true, nil
}

func (h *Handler) GetKeys() ([]ed25519.PrivateKey, error) {
	iter := h.db.NewIteratorWithPrefix([]byte{keyPrefix})
	defer iter.Release()

	privateKeys := []ed25519.PrivateKey{}
	for iter.Next() {
		v := iter.Value()
		if len(v) != ed25519.PrivateKeyLen {
			return nil, fmt.Errorf("%w: stored key %x", ed25519.ErrInvalidPrivateKey, iter.Key())
		}
		privateKeys = append(privateKeys, ed25519.PrivateKey(v))
	}
	return privateKeys, iter.Error()
}

func (h *Handler) StoreDefaultKey(addr codec.Address) error {
	return h.StoreDefault(defaultKeyKey, addr[:])
}

func (h *Handler) GetDefaultKey(log bool) (ed25519.PrivateKey, codec.Address, error) {
	v, err := h.GetDefault(defaultKeyKey)
	if err != nil {
		return ed25519.EmptyPrivateKey, codec.EmptyAddress, err
	}
	if len(v) == 0 {
		return ed25519.EmptyPrivateKey, codec.EmptyAddress, ErrNoKeys
	}
	addr, err := codec.ToAddress(v)
	if err != nil {
		return ed25519.EmptyPrivateKey, codec.EmptyAddress, err
	}
	priv, ok, err := h.GetKey(addr)
	if err != nil {
		return ed25519.EmptyPrivateKey, codec.EmptyAddress, err
	}
	if !ok {
		return ed25519.EmptyPrivateKey, codec.EmptyAddress, ErrNoKeys
	}
	if log {
		utils.Outf("{{yellow}}address:{{/}} %s\n", addr)
	}
	return priv, addr, nil
}

func chainStorageKey(chainID ids.ID, uri string) []byte {
	k := make([]byte, 1+consts.IDLen*2)
	k[0] = chainPrefix
	copy(k[1:], chainID[:])
	uriID := utils.ToID([]byte(uri))
	copy(k[1+consts.IDLen:], uriID[:])
	return k
}

// StoreChain fails with [ErrDuplicate] if [uri] is already known for
// [chainID].
func (h *Handler) StoreChain(chainID ids.ID, uri string) error {
	k := chainStorageKey(chainID, uri)
	has, err := h.db.Has(k)
	if err != nil {
		return err
	}
	if has {
		return ErrDuplicate
	}
	return h.db.Put(k, []byte(uri))
}

func (h *Handler) GetChain(chainID ids.ID) ([]string, error) {
	k := make([]byte, 1+consts.IDLen)
	k[0] = chainPrefix
	copy(k[1:], chainID[:])

	uris := []string{}
	iter := h.db.NewIteratorWithPrefix(k)
	defer iter.Release()
	for iter.Next() {
		uris = append(uris, string(iter.Value()))
	}
	return uris, iter.Error()
}

func (h *Handler) GetChains() (map[ids.ID][]string, error) {
	iter := h.db.NewIteratorWithPrefix([]byte{chainPrefix})
	defer iter.Release()

	chains := map[ids.ID][]string{}
	for iter.Next() {
		k := iter.Key()
		chainID := ids.ID(k[1 : 1+consts.IDLen])
		chains[chainID] = append(chains[chainID], string(iter.Value()))
	}
	return chains, iter.Error()
}

// DeleteChains forgets every known chain and returns their ids.
func (h *Handler) DeleteChains() ([]ids.ID, error) {
	chains, err := h.GetChains()
	if err != nil {
		return nil, err
	}
	chainIDs := make([]ids.ID, 0, len(chains))
	for chainID, uris := range chains {
		for _, uri := range uris {
			if err := h.db.Delete(chainStorageKey(chainID, uri)); err != nil {
				return nil, err
			}
		}
		chainIDs = append(chainIDs, chainID)
	}
	return chainIDs, nil
}

func (h *Handler) CloseDatabase() error {
	if h.db == nil {
		return nil
	}
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("unable to close database: %w", err)
	}
	// Allow DB to be closed multiple times
	h.db = nil
	return nil
}
