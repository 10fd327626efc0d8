// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePrivateKeyDifferent(t *testing.T) {
	require := require.New(t)
	const numKeysToGenerate int = 10
	pks := map[PrivateKey]struct{}{}

	for i := 0; i < numKeysToGenerate; i++ {
		priv, err := GeneratePrivateKey()
		require.NoError(err)
		require.NotContains(pks, priv)
		pks[priv] = struct{}{}
	}
}

func TestSignVerify(t *testing.T) {
	require := require.New(t)
	priv, err := GeneratePrivateKey()
	require.NoError(err)

	msg := []byte("deposit asset 1")
	sig := Sign(msg, priv)
	require.True(Verify(msg, priv.PublicKey(), sig))
	require.False(Verify([]byte("deposit asset 2"), priv.PublicKey(), sig))

	other, err := GeneratePrivateKey()
	require.NoError(err)
	require.False(Verify(msg, other.PublicKey(), sig))
}

func TestBatchVerify(t *testing.T) {
	require := require.New(t)
	batch := NewBatch(MinBatchSize)
	for i := 0; i < MinBatchSize; i++ {
		priv, err := GeneratePrivateKey()
		require.NoError(err)
		msg := []byte{byte(i)}
		batch.Add(msg, priv.PublicKey(), Sign(msg, priv))
	}
	require.NoError(batch.Verify())

	priv, err := GeneratePrivateKey()
	require.NoError(err)
	bad := NewBatch(2)
	bad.Add([]byte{1}, priv.PublicKey(), Sign([]byte{2}, priv))
	require.ErrorIs(bad.Verify(), ErrInvalidSignature)
}

func TestPrivateKeyFromSeed(t *testing.T) {
	require := require.New(t)
	seed := make([]byte, PrivateKeySeedLen)
	seed[0] = 1
	a, err := PrivateKeyFromSeed(seed)
	require.NoError(err)
	b, err := PrivateKeyFromSeed(seed)
	require.NoError(err)
	require.Equal(a, b)

	_, err = PrivateKeyFromSeed([]byte{1})
	require.ErrorIs(err, ErrInvalidPrivateKey)
}

func TestSaveLoadKey(t *testing.T) {
	require := require.New(t)
	priv, err := GeneratePrivateKey()
	require.NoError(err)

	path := filepath.Join(t.TempDir(), "key.pk")
	require.NoError(priv.Save(path))

	loaded, err := LoadKey(path)
	require.NoError(err)
	require.Equal(priv, loaded)

	_, err = HexToPrivateKey("00")
	require.ErrorIs(err, ErrInvalidPrivateKey)
}
