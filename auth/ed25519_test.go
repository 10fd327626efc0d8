// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/crypto/ed25519"
)

func TestED25519SignVerify(t *testing.T) {
	require := require.New(t)
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	factory := NewED25519Factory(priv)
	msg := []byte("deposit")

	a, err := factory.Sign(msg)
	require.NoError(err)
	require.NoError(a.Verify(context.TODO(), msg))
	require.ErrorIs(a.Verify(context.TODO(), []byte("withdraw")), ed25519.ErrInvalidSignature)
	require.Equal(factory.Address(), a.Actor())
	require.Equal(ED25519ID, a.Actor()[0])
}

func TestED25519Marshal(t *testing.T) {
	require := require.New(t)
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	a, err := NewED25519Factory(priv).Sign([]byte("msg"))
	require.NoError(err)

	p := codec.NewWriter(a.Size(), a.Size())
	a.Marshal(p)
	require.NoError(p.Err())
	require.Len(p.Bytes(), ED25519Size)

	parsed, err := UnmarshalED25519(codec.NewReader(p.Bytes(), ED25519Size))
	require.NoError(err)
	require.Equal(a.Actor(), parsed.Actor())
	require.NoError(parsed.Verify(context.TODO(), []byte("msg")))

	_, err = UnmarshalED25519(codec.NewReader(p.Bytes()[:10], ED25519Size))
	require.Error(err)
}

func TestED25519Batch(t *testing.T) {
	tests := map[string]struct {
		count   int
		cores   int
		corrupt int
	}{
		"single batch": {
			count:   3,
			cores:   1,
			corrupt: -1,
		},
		"many batches": {
			count:   20,
			cores:   4,
			corrupt: -1,
		},
		"bad signature": {
			count:   9,
			cores:   2,
			corrupt: 5,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			bv := (&ED25519Engine{}).GetBatchVerifier(tt.cores, tt.count)

			jobs := []func() error{}
			for i := 0; i < tt.count; i++ {
				priv, err := ed25519.GeneratePrivateKey()
				require.NoError(err)
				msg := []byte{byte(i)}
				a, err := NewED25519Factory(priv).Sign(msg)
				require.NoError(err)
				if i == tt.corrupt {
					msg = []byte("other")
				}
				if job := bv.Add(msg, a); job != nil {
					jobs = append(jobs, job)
				}
			}
			jobs = append(jobs, bv.Done()...)
			require.NotEmpty(jobs)

			var failed bool
			for _, job := range jobs {
				if err := job(); err != nil {
					require.ErrorIs(err, ed25519.ErrInvalidSignature)
					failed = true
				}
			}
			require.Equal(tt.corrupt >= 0, failed)
		})
	}
}

func TestGetFactory(t *testing.T) {
	require := require.New(t)
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)

	pk := NewED25519PrivateKey(priv)
	factory, err := GetFactory(pk)
	require.NoError(err)
	require.Equal(pk.Address, factory.Address())

	_, err = GetFactory(&PrivateKey{Address: codec.CreateAddress(9, [32]byte{}), Bytes: pk.Bytes})
	require.ErrorIs(err, ErrInvalidKeyType)
}
