// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed-slot access to ledger records, similar to
// declaring state variables in a smart contract. All writes of one operation
// are staged in a context overlay and become durable only on Commit, which
// gives every ledger operation all-or-nothing semantics.
package storage

import (
	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
)

// Context stages reads and writes of a single ledger operation.
type Context struct {
	store   kv.Store
	overlay map[string][]byte
}

// NewContext creates a context over the given store.
func NewContext(store kv.Store) *Context {
	return &Context{
		store:   store,
		overlay: make(map[string][]byte),
	}
}

// Get returns the value for the key, overlay first.
// A missing key yields a nil value and no error.
func (c *Context) Get(key []byte) ([]byte, error) {
	if val, ok := c.overlay[string(key)]; ok {
		return val, nil
	}
	val, err := c.store.Get(key)
	if err != nil {
		if c.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "storage get")
	}
	return val, nil
}

// Put stages a value for the key.
func (c *Context) Put(key, val []byte) {
	c.overlay[string(key)] = val
}

// Commit writes all staged values atomically and clears the overlay.
func (c *Context) Commit() error {
	if len(c.overlay) == 0 {
		return nil
	}
	batch := c.store.NewBatch()
	for k, v := range c.overlay {
		if len(v) == 0 {
			if err := batch.Delete([]byte(k)); err != nil {
				return errors.Wrap(err, "storage commit")
			}
			continue
		}
		if err := batch.Put([]byte(k), v); err != nil {
			return errors.Wrap(err, "storage commit")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "storage commit")
	}
	c.overlay = make(map[string][]byte)
	return nil
}

// Discard drops all staged values.
func (c *Context) Discard() {
	c.overlay = make(map[string][]byte)
}

func slotKey(ns citadel.Address, slot []byte) []byte {
	return append(append([]byte{}, ns.Bytes()...), slot...)
}
