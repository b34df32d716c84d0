// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction for ledger records, similar to
// the mapping in Solidity. Values are RLP encoded; a missing key decodes to
// the zero value.
type Mapping[K Key, V any] struct {
	context *Context
	ns      citadel.Address
	base    []byte
}

// NewMapping binds a mapping in the given namespace.
func NewMapping[K Key, V any](context *Context, ns citadel.Address, slot []byte) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, ns: ns, base: slot}
}

func (m *Mapping[K, V]) position(key K) []byte {
	return slotKey(m.ns, crypto.Keccak256(m.base, key.Bytes()))
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	raw, err := m.context.Get(m.position(key))
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	err = rlp.DecodeBytes(raw, &value)
	return value, err
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.context.Put(m.position(key), raw)
	return nil
}

// Value is a singleton RLP-encoded record, for structured state that does
// not fit a plain integer slot.
type Value[V any] struct {
	context *Context
	key     []byte
}

// NewValue binds a record slot in the given namespace.
func NewValue[V any](context *Context, ns citadel.Address, slot []byte) *Value[V] {
	return &Value[V]{context: context, key: slotKey(ns, slot)}
}

// Get decodes the stored record. ok is false when the slot was never written.
func (v *Value[V]) Get() (value V, ok bool, err error) {
	raw, err := v.context.Get(v.key)
	if err != nil {
		return value, false, err
	}
	if len(raw) == 0 {
		return value, false, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (v *Value[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	v.context.Put(v.key, raw)
	return nil
}
