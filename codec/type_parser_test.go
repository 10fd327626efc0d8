// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type blah interface {
	Typed
	Value() uint64
}

type blah1 struct{ v uint64 }

func (*blah1) GetTypeID() uint8 { return 0 }

func (b *blah1) Value() uint64 { return b.v }

type blah2 struct{}

func (*blah2) GetTypeID() uint8 { return 1 }

func (*blah2) Value() uint64 { return 0 }

func TestTypeParser(t *testing.T) {
	require := require.New(t)
	tp := NewTypeParser[blah]()

	require.NoError(tp.Register(&blah1{}, func(p *Packer) (blah, error) {
		return &blah1{v: p.UnpackUint64(true)}, p.Err()
	}))
	require.ErrorIs(tp.Register(&blah1{}, nil), ErrDuplicateItem)
	require.NoError(tp.Register(&blah2{}, func(*Packer) (blah, error) {
		return &blah2{}, nil
	}))

	_, ok := tp.LookupIndex(1)
	require.True(ok)
	_, ok = tp.LookupIndex(2)
	require.False(ok)

	w := NewWriter(16, 16)
	w.PackByte(0)
	w.PackUint64(42)
	r := NewReader(w.Bytes(), 16)
	v, err := tp.Unpack(r)
	require.NoError(err)
	require.Equal(uint64(42), v.Value())
	require.True(r.Empty())

	_, err = tp.Unpack(NewReader([]byte{9}, 1))
	require.ErrorIs(err, ErrUnknownType)
}
