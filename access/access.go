// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package access keeps the capability sets guarding privileged factory
// and pool operations. Admins manage pools and grant roles; borrowers
// may take flash loans.
package access

import (
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
)

// Role names a capability set.
type Role uint8

const (
	AdminRole Role = iota
	BorrowerRole
)

func (r Role) String() string {
	switch r {
	case AdminRole:
		return "admin"
	case BorrowerRole:
		return "borrower"
	}
	return "unknown"
}

var roleSlots = map[Role][]byte{
	AdminRole:    []byte("access.admins"),
	BorrowerRole: []byte("access.borrowers"),
}

// Control reads and writes role membership.
type Control struct {
	ns      citadel.Address
	context *storage.Context
}

// New binds role storage to the namespace ns, usually the factory
// address.
func New(ns citadel.Address, context *storage.Context) *Control {
	return &Control{ns: ns, context: context}
}

func (c *Control) members(role Role) *storage.Mapping[citadel.Address, bool] {
	return storage.NewMapping[citadel.Address, bool](c.context, c.ns, roleSlots[role])
}

// Grant adds addr to role.
func (c *Control) Grant(role Role, addr citadel.Address) error {
	return c.members(role).Set(addr, true)
}

// Revoke removes addr from role.
func (c *Control) Revoke(role Role, addr citadel.Address) error {
	return c.members(role).Set(addr, false)
}

// Has reports whether addr holds role.
func (c *Control) Has(role Role, addr citadel.Address) (bool, error) {
	return c.members(role).Get(addr)
}
