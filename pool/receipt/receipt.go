// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package receipt maintains the stake-receipt balances of a pool. A
// receipt position mirrors the net amount an account has staked and is
// what profit accrual is computed against; it moves on deposit,
// withdrawal and position transfer but never leaves the pool's books.
package receipt

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
)

var (
	slotMeta     = []byte("receipt.meta")
	slotSupply   = []byte("receipt.total-supply")
	slotBalances = []byte("receipt.balances")
)

type meta struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Service reads and writes the receipt ledger of one pool.
type Service struct {
	addr     citadel.Address
	meta     *storage.Value[meta]
	supply   *storage.BigInt
	balances *storage.Mapping[citadel.Address, *big.Int]
}

// New binds a receipt service to the pool at addr.
func New(addr citadel.Address, context *storage.Context) *Service {
	return &Service{
		addr:     addr,
		meta:     storage.NewValue[meta](context, addr, slotMeta),
		supply:   storage.NewBigInt(context, addr, slotSupply),
		balances: storage.NewMapping[citadel.Address, *big.Int](context, addr, slotBalances),
	}
}

// Init writes the receipt metadata, derived from the staked asset's
// name and symbol by prefixing "ct".
func (s *Service) Init(assetName, assetSymbol string, decimals uint8) error {
	return s.meta.Set(meta{
		Name:     "ct" + assetName,
		Symbol:   "ct" + assetSymbol,
		Decimals: decimals,
	})
}

func (s *Service) Name() (string, error) {
	m, _, err := s.meta.Get()
	return m.Name, err
}

func (s *Service) Symbol() (string, error) {
	m, _, err := s.meta.Get()
	return m.Symbol, err
}

func (s *Service) Decimals() (uint8, error) {
	m, _, err := s.meta.Get()
	return m.Decimals, err
}

// TotalSupply returns the sum of all receipt balances, normalized.
func (s *Service) TotalSupply() (*big.Int, error) {
	return s.supply.Get()
}

// BalanceOf returns addr's receipt balance, normalized.
func (s *Service) BalanceOf(addr citadel.Address) (*big.Int, error) {
	b, err := s.balances.Get(addr)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = new(big.Int)
	}
	return b, nil
}

// Add credits amount to addr and grows the total supply.
func (s *Service) Add(addr citadel.Address, amount *big.Int) error {
	bal, err := s.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := s.balances.Set(addr, new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	return s.supply.Add(amount)
}

// Sub debits amount from addr and shrinks the total supply. The caller
// is expected to have checked the balance; an underflow here is a
// bookkeeping bug.
func (s *Service) Sub(addr citadel.Address, amount *big.Int) error {
	bal, err := s.BalanceOf(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.Errorf("receipt: balance underflow for %v", addr)
	}
	if err := s.balances.Set(addr, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	return s.supply.Sub(amount)
}

// Move shifts amount from one account to another without touching the
// total supply.
func (s *Service) Move(from, to citadel.Address, amount *big.Int) error {
	fromBal, err := s.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errors.Errorf("receipt: balance underflow for %v", from)
	}
	if err := s.balances.Set(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := s.BalanceOf(to)
	if err != nil {
		return err
	}
	return s.balances.Set(to, new(big.Int).Add(toBal, amount))
}
