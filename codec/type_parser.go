// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import "fmt"

// Typed is implemented by every value that is serialized behind a one byte
// type prefix.
type Typed interface {
	GetTypeID() uint8
}

type Decoder[T any] func(*Packer) (T, error)

// TypeParser maps type ids to the functions that decode them.
type TypeParser[T Typed] struct {
	decoders map[uint8]Decoder[T]
}

func NewTypeParser[T Typed]() *TypeParser[T] {
	return &TypeParser[T]{
		decoders: map[uint8]Decoder[T]{},
	}
}

// Register adds [f] as the decoder of [instance]'s type id. Registering the
// same id twice is an error.
func (p *TypeParser[T]) Register(instance Typed, f Decoder[T]) error {
	id := instance.GetTypeID()
	if _, ok := p.decoders[id]; ok {
		return fmt.Errorf("%w: type id %d", ErrDuplicateItem, id)
	}
	p.decoders[id] = f
	return nil
}

func (p *TypeParser[T]) LookupIndex(index uint8) (Decoder[T], bool) {
	f, ok := p.decoders[index]
	return f, ok
}

// Unpack reads a type id from [pk] and decodes the value that follows it.
func (p *TypeParser[T]) Unpack(pk *Packer) (T, error) {
	var empty T
	typeID := pk.UnpackByte()
	if err := pk.Err(); err != nil {
		return empty, err
	}
	f, ok := p.decoders[typeID]
	if !ok {
		return empty, fmt.Errorf("%w: %d", ErrUnknownType, typeID)
	}
	return f(pk)
}
