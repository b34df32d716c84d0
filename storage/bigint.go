// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
)

// BigInt is a wrapper for storage and retrieval of an unsigned big integer,
// similar to storing an uint256 in a smart contract.
type BigInt struct {
	context *Context
	key     []byte
}

// NewBigInt binds a big integer slot in the given namespace.
func NewBigInt(context *Context, ns citadel.Address, slot []byte) *BigInt {
	return &BigInt{context: context, key: slotKey(ns, slot)}
}

func (b *BigInt) Get() (*big.Int, error) {
	raw, err := b.context.Get(b.key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (b *BigInt) Set(value *big.Int) {
	b.context.Put(b.key, value.Bytes())
}

func (b *BigInt) Add(value *big.Int) error {
	stored, err := b.Get()
	if err != nil {
		return err
	}
	stored.Add(stored, value)
	b.Set(stored)
	return nil
}

// Sub subtracts value from the slot. The stored quantity is unsigned, so
// crossing zero is an error instead of a silent wrap.
func (b *BigInt) Sub(value *big.Int) error {
	stored, err := b.Get()
	if err != nil {
		return err
	}
	if stored.Cmp(value) < 0 {
		return errors.New("storage: bigint underflow")
	}
	stored.Sub(stored, value)
	b.Set(stored)
	return nil
}

// Uint64 is a wrapper for storage and retrieval of an uint64.
type Uint64 struct {
	context *Context
	key     []byte
}

// NewUint64 binds an uint64 slot in the given namespace.
func NewUint64(context *Context, ns citadel.Address, slot []byte) *Uint64 {
	return &Uint64{context: context, key: slotKey(ns, slot)}
}

func (u *Uint64) Get() (uint64, error) {
	raw, err := u.context.Get(u.key)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, errors.New("storage: invalid uint64 encoding")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (u *Uint64) Set(value uint64) {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], value)
	u.context.Put(u.key, raw[:])
}

// Bool is a wrapper for storage and retrieval of a flag.
type Bool struct {
	context *Context
	key     []byte
}

// NewBool binds a bool slot in the given namespace.
func NewBool(context *Context, ns citadel.Address, slot []byte) *Bool {
	return &Bool{context: context, key: slotKey(ns, slot)}
}

func (b *Bool) Get() (bool, error) {
	raw, err := b.context.Get(b.key)
	if err != nil {
		return false, err
	}
	return len(raw) == 1 && raw[0] == 1, nil
}

func (b *Bool) Set(value bool) {
	if value {
		b.context.Put(b.key, []byte{1})
	} else {
		b.context.Put(b.key, []byte{0})
	}
}
