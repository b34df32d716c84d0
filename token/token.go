// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible-token ledgers the pools settle
// against. Each token lives under its own storage namespace and keeps
// plain per-account balances in the token's native decimals; pools hold
// their liquidity and accumulated reward tokens as ordinary accounts
// here.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
)

var (
	slotMeta     = []byte("token.meta")
	slotSupply   = []byte("token.total-supply")
	slotBalances = []byte("token.balances")
)

// Metadata describes a token.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Token reads and writes one token ledger.
type Token struct {
	addr     citadel.Address
	meta     *storage.Value[Metadata]
	supply   *storage.BigInt
	balances *storage.Mapping[citadel.Address, *big.Int]
}

// New binds a token ledger to its storage namespace.
func New(addr citadel.Address, context *storage.Context) *Token {
	return &Token{
		addr:     addr,
		meta:     storage.NewValue[Metadata](context, addr, slotMeta),
		supply:   storage.NewBigInt(context, addr, slotSupply),
		balances: storage.NewMapping[citadel.Address, *big.Int](context, addr, slotBalances),
	}
}

// Address returns the ledger's namespace address.
func (t *Token) Address() citadel.Address {
	return t.addr
}

// Init writes the token metadata. It is an error to initialize the same
// namespace twice.
func (t *Token) Init(meta Metadata) error {
	if _, ok, err := t.meta.Get(); err != nil {
		return err
	} else if ok {
		return errors.Errorf("token: %v already initialized", t.addr)
	}
	return t.meta.Set(meta)
}

// Meta returns the token metadata.
func (t *Token) Meta() (Metadata, error) {
	m, ok, err := t.meta.Get()
	if err != nil {
		return Metadata{}, err
	}
	if !ok {
		return Metadata{}, errors.Errorf("token: %v not initialized", t.addr)
	}
	return m, nil
}

// Decimals returns the token's native decimals.
func (t *Token) Decimals() (uint8, error) {
	m, err := t.Meta()
	return m.Decimals, err
}

// TotalSupply returns the amount minted so far, in native units.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// BalanceOf returns addr's balance in native units.
func (t *Token) BalanceOf(addr citadel.Address) (*big.Int, error) {
	b, err := t.balances.Get(addr)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = new(big.Int)
	}
	return b, nil
}

// Mint credits amount to addr out of thin air and grows the supply.
func (t *Token) Mint(addr citadel.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("token: negative mint amount")
	}
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := t.balances.Set(addr, new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	return t.supply.Add(amount)
}

// Transfer moves amount between accounts. It reports whether the
// transfer went through; an insufficient balance is not an error.
func (t *Token) Transfer(from, to citadel.Address, amount *big.Int) (bool, error) {
	if amount.Sign() < 0 {
		return false, errors.New("token: negative transfer amount")
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBal.Cmp(amount) < 0 {
		return false, nil
	}
	if err := t.balances.Set(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return false, err
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return false, err
	}
	if err := t.balances.Set(to, new(big.Int).Add(toBal, amount)); err != nil {
		return false, err
	}
	return true, nil
}
