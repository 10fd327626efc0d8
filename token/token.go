// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state"
	"github.com/ava-labs/stakevm/storage"
)

// TokensReceiver is notified after [Token.Transfer] credits the address it
// was registered for. Returning an error fails the transfer.
type TokensReceiver interface {
	OnTokensReceived(ctx context.Context, mu state.Mutable, from codec.Address, amount uint64) error
}

// Token is a fungible token whose balances live in state.
type Token struct {
	address   codec.Address
	receivers map[codec.Address]TokensReceiver
}

// Address derives the address of the token called [name].
func Address(name string) codec.Address {
	return codec.CreateAddress(consts.TokenID, hashing.ComputeHash256Array([]byte(name)))
}

func New(address codec.Address) *Token {
	return &Token{
		address:   address,
		receivers: make(map[codec.Address]TokensReceiver),
	}
}

func (t *Token) Address() codec.Address {
	return t.address
}

// RegisterReceiver installs [r] as the receiver hook of [addr]. A nil [r]
// removes the hook.
func (t *Token) RegisterReceiver(addr codec.Address, r TokensReceiver) {
	if r == nil {
		delete(t.receivers, addr)
		return
	}
	t.receivers[addr] = r
}

func (t *Token) BalanceOf(ctx context.Context, im state.Immutable, who codec.Address) (uint64, error) {
	return storage.GetBalance(ctx, im, t.address, who)
}

// Mint credits [amount] to [to] out of thin air. It is only used to apply
// genesis allocations.
func (t *Token) Mint(ctx context.Context, mu state.Mutable, to codec.Address, amount uint64) error {
	if to.Empty() {
		return ErrTransferToEmpty
	}
	if _, err := storage.AddBalance(ctx, mu, t.address, to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrBalanceOverflow, err)
	}
	return nil
}

// Transfer moves [amount] from [from] to [to]. The receiver hook of [to], if
// any, runs after both balances are written.
func (t *Token) Transfer(
	ctx context.Context,
	mu state.Mutable,
	from codec.Address,
	to codec.Address,
	amount uint64,
) error {
	if to.Empty() {
		return ErrTransferToEmpty
	}
	bal, err := storage.GetBalance(ctx, mu, t.address, from)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientBalance, bal, amount)
	}
	if amount > 0 && from != to {
		if _, err := storage.SubBalance(ctx, mu, t.address, from, amount); err != nil {
			return err
		}
		if _, err := storage.AddBalance(ctx, mu, t.address, to, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrBalanceOverflow, err)
		}
	}
	if r, ok := t.receivers[to]; ok {
		return r.OnTokensReceived(ctx, mu, from, amount)
	}
	return nil
}

// TransferKeys are the keys touched by [Transfer].
func (t *Token) TransferKeys(from codec.Address, to codec.Address) state.Keys {
	keys := make(state.Keys, 2)
	keys.Add(string(storage.BalanceKey(t.address, from)), state.All)
	keys.Add(string(storage.BalanceKey(t.address, to)), state.All)
	return keys
}
