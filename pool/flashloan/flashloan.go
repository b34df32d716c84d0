// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package flashloan moves an uncollateralized loan out of a pool account
// and back within one operation. The caller runs the whole exchange on
// an uncommitted storage overlay, so a receiver that fails to repay
// leaves no trace; the gateway only has to detect the shortfall, not
// undo anything.
package flashloan

import (
	"math/big"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
)

// AssetLedger is the slice of a token ledger the gateway needs.
type AssetLedger interface {
	BalanceOf(addr citadel.Address) (*big.Int, error)
	Transfer(from, to citadel.Address, amount *big.Int) (bool, error)
}

// Loan describes one flash loan, in the asset's native units.
type Loan struct {
	Pool   citadel.Address
	Amount *big.Int
	Fee    *big.Int
	Data   []byte
}

// Account is the receiver's window onto the asset ledger for the
// duration of the callback. It can spend the receiver's own funds
// only, so untrusted receiver code never holds a handle that moves
// third-party balances.
type Account struct {
	ledger AssetLedger
	owner  citadel.Address
}

// Owner returns the account's address.
func (a *Account) Owner() citadel.Address {
	return a.owner
}

// Balance returns the owner's current asset balance.
func (a *Account) Balance() (*big.Int, error) {
	return a.ledger.BalanceOf(a.owner)
}

// Pay transfers amount of the owner's funds to the given address.
func (a *Account) Pay(to citadel.Address, amount *big.Int) (bool, error) {
	return a.ledger.Transfer(a.owner, to, amount)
}

// Receiver takes delivery of a loan and must leave amount+fee
// transferable back to the pool when its callback returns.
type Receiver interface {
	Address() citadel.Address
	OnFlashLoan(account *Account, loan *Loan) error
}

// Gateway executes flash loans against one asset ledger.
type Gateway struct {
	ledger AssetLedger
}

// New returns a gateway over the given asset ledger.
func New(ledger AssetLedger) *Gateway {
	return &Gateway{ledger: ledger}
}

// Execute checkpoints the pool balance, pushes amount to the receiver,
// runs its callback and pulls amount+fee back. The pool must end up
// with at least checkpoint+fee or the loan fails.
func (g *Gateway) Execute(pool citadel.Address, receiver Receiver, amount, fee *big.Int, data []byte) error {
	checkpoint, err := g.ledger.BalanceOf(pool)
	if err != nil {
		return err
	}

	ok, err := g.ledger.Transfer(pool, receiver.Address(), amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Transfer failed")
	}

	loan := &Loan{Pool: pool, Amount: amount, Fee: fee, Data: data}
	account := &Account{ledger: g.ledger, owner: receiver.Address()}
	if err := receiver.OnFlashLoan(account, loan); err != nil {
		return reverts.New(reverts.TransferFailed, "Pool: Flash loan receiver failed")
	}

	repay := new(big.Int).Add(amount, fee)
	ok, err = g.ledger.Transfer(receiver.Address(), pool, repay)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Flash loan not repaid")
	}

	balance, err := g.ledger.BalanceOf(pool)
	if err != nil {
		return err
	}
	if balance.Cmp(new(big.Int).Add(checkpoint, fee)) < 0 {
		return reverts.New(reverts.TransferFailed, "Pool: Flash loan not repaid")
	}
	return nil
}
