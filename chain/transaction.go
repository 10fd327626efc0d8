// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/consts"
	"github.com/ava-labs/stakevm/state"
)

type Transaction struct {
	Base   *Base  `json:"base"`
	Action Action `json:"action"`
	Auth   Auth   `json:"auth"`

	digest []byte
	bytes  []byte
	id     ids.ID
}

func NewTx(base *Base, action Action) *Transaction {
	return &Transaction{
		Base:   base,
		Action: action,
	}
}

// Digest returns the bytes the auth signs over: the base and the action.
func (t *Transaction) Digest() ([]byte, error) {
	if len(t.digest) > 0 {
		return t.digest, nil
	}
	size := t.Base.Size() + consts.ByteLen + t.Action.Size()
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	t.Base.Marshal(p)
	p.PackByte(t.Action.GetTypeID())
	t.Action.Marshal(p)
	return p.Bytes(), p.Err()
}

// Sign signs the transaction with [factory] and reloads it from bytes so the
// returned transaction is fully initialized.
func (t *Transaction) Sign(factory AuthFactory, registry Registry) (*Transaction, error) {
	msg, err := t.Digest()
	if err != nil {
		return nil, err
	}
	auth, err := factory.Sign(msg)
	if err != nil {
		return nil, err
	}
	t.Auth = auth

	size := len(msg) + consts.ByteLen + t.Auth.Size()
	p := codec.NewWriter(size, consts.NetworkSizeLimit)
	if err := t.Marshal(p); err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return UnmarshalTx(codec.NewReader(p.Bytes(), consts.NetworkSizeLimit), registry)
}

// AuthAsync returns a function that verifies the signature of [t]. Auths
// that can be batched are added to [batchVerifier] instead.
func (t *Transaction) AuthAsync(batchVerifier AuthBatchVerifier) (func() error, error) {
	msg, err := t.Digest()
	if err != nil {
		return nil, err
	}
	if batchVerifier != nil {
		return batchVerifier.Add(msg, t.Auth), nil
	}
	return func() error {
		return t.Auth.Verify(context.Background(), msg)
	}, nil
}

func (t *Transaction) Bytes() []byte { return t.bytes }

func (t *Transaction) Size() int { return len(t.bytes) }

func (t *Transaction) ID() ids.ID { return t.id }

func (t *Transaction) Expiry() int64 { return t.Base.Timestamp }

// Sponsor is the account that signed the transaction.
func (t *Transaction) Sponsor() codec.Address { return t.Auth.Actor() }

func (t *Transaction) StateKeys(r Rules) state.Keys {
	return t.Action.StateKeys(t.Auth.Actor(), r)
}

func (t *Transaction) Marshal(p *codec.Packer) error {
	if len(t.bytes) > 0 {
		p.PackFixedBytes(t.bytes)
		return p.Err()
	}
	if t.Auth == nil {
		return ErrMissingAuth
	}
	t.Base.Marshal(p)
	p.PackByte(t.Action.GetTypeID())
	t.Action.Marshal(p)
	p.PackByte(t.Auth.GetTypeID())
	t.Auth.Marshal(p)
	return p.Err()
}

func UnmarshalTx(p *codec.Packer, registry Registry) (*Transaction, error) {
	start := p.Offset()
	base, err := UnmarshalBase(p)
	if err != nil {
		return nil, fmt.Errorf("%w: could not unmarshal base", err)
	}
	action, err := registry.ActionRegistry().Unpack(p)
	if err != nil {
		return nil, fmt.Errorf("%w: could not unmarshal action", err)
	}
	digest := p.Offset()
	auth, err := registry.AuthRegistry().Unpack(p)
	if err != nil {
		return nil, fmt.Errorf("%w: could not unmarshal auth", err)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	var tx Transaction
	tx.Base = base
	tx.Action = action
	tx.Auth = auth
	codecBytes := p.Bytes()
	tx.digest = codecBytes[start:digest]
	tx.bytes = codecBytes[start:p.Offset()]
	tx.id = hashing.ComputeHash256Array(tx.bytes)
	return &tx, nil
}

// ParseTx unmarshals a single transaction and rejects trailing bytes.
func ParseTx(b []byte, registry Registry) (*Transaction, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	tx, err := UnmarshalTx(p, registry)
	if err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: tx", codec.ErrExtraBytes)
	}
	return tx, nil
}
