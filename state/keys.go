// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

const (
	Read     Permissions = 1
	Allocate             = 1<<1 | Read
	Write                = 1<<2 | Read

	None Permissions = 0
	All              = Read | Allocate | Write
)

// Keys holds the name of each key an action may touch and its permission
// (Read/Allocate/Write). Use [Keys.Add] so a key declared twice keeps the
// union of its permissions.
type Keys map[string]Permissions

// All acceptable permission options
type Permissions byte

// Add grants [permission] on [name] in addition to anything already granted.
func (k Keys) Add(name string, permission Permissions) {
	k[name] |= permission
}

// Union merges [other] into [k].
func (k Keys) Union(other Keys) Keys {
	for name, permission := range other {
		k.Add(name, permission)
	}
	return k
}

// Has returns true if [p] has all the permissions that are contained in require
func (p Permissions) Has(require Permissions) bool {
	return require&^p == 0
}

func (p Permissions) String() string {
	switch p {
	case None:
		return "none"
	case Read:
		return "read"
	case Allocate:
		return "allocate"
	case Write:
		return "write"
	case All:
		return "all"
	default:
		return "unknown"
	}
}
