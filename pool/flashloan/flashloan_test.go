// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package flashloan

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

var (
	poolAddr     = citadel.MustParseAddress("0x1000000000000000000000000000000000000001")
	borrowerAddr = citadel.MustParseAddress("0x0000000000000000000000000000000000000b01")
)

type testReceiver struct {
	callback func(account *Account, loan *Loan) error
}

func (r *testReceiver) Address() citadel.Address { return borrowerAddr }

func (r *testReceiver) OnFlashLoan(account *Account, loan *Loan) error {
	if r.callback != nil {
		return r.callback(account, loan)
	}
	return nil
}

func newTestLedger(t *testing.T) *token.Token {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tok := token.New(citadel.TokenAddress("DAI"), storage.NewContext(store))
	require.NoError(t, tok.Init(token.Metadata{Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18}))
	require.NoError(t, tok.Mint(poolAddr, big.NewInt(1000)))
	return tok
}

func TestExecute(t *testing.T) {
	ledger := newTestLedger(t)
	// receiver holds funds to cover the fee
	require.NoError(t, ledger.Mint(borrowerAddr, big.NewInt(50)))

	var seen *Loan
	recv := &testReceiver{callback: func(_ *Account, loan *Loan) error {
		seen = loan
		return nil
	}}

	g := New(ledger)
	require.NoError(t, g.Execute(poolAddr, recv, big.NewInt(600), big.NewInt(12), []byte("x")))

	require.NotNil(t, seen)
	assert.Equal(t, big.NewInt(600), seen.Amount)
	assert.Equal(t, big.NewInt(12), seen.Fee)
	assert.Equal(t, []byte("x"), seen.Data)

	poolBal, err := ledger.BalanceOf(poolAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1012), poolBal)

	borrowerBal, err := ledger.BalanceOf(borrowerAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(38), borrowerBal)
}

func TestExecuteReceiverError(t *testing.T) {
	ledger := newTestLedger(t)
	recv := &testReceiver{callback: func(*Account, *Loan) error {
		return errors.New("strategy failed")
	}}

	err := New(ledger).Execute(poolAddr, recv, big.NewInt(600), big.NewInt(12), nil)
	assert.True(t, reverts.Is(err, reverts.TransferFailed))
}

func TestExecuteNotRepaid(t *testing.T) {
	ledger := newTestLedger(t)
	// receiver spends part of the loan and cannot repay amount+fee
	recv := &testReceiver{callback: func(a *Account, loan *Loan) error {
		burnAddr := citadel.MustParseAddress("0x000000000000000000000000000000000000dead")
		_, err := a.Pay(burnAddr, big.NewInt(100))
		return err
	}}

	err := New(ledger).Execute(poolAddr, recv, big.NewInt(600), big.NewInt(12), nil)
	assert.True(t, reverts.Is(err, reverts.TransferFailed))
}

func TestAccountScopedToReceiver(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.Mint(borrowerAddr, big.NewInt(50)))
	bystander := citadel.MustParseAddress("0x0000000000000000000000000000000000000c01")
	require.NoError(t, ledger.Mint(bystander, big.NewInt(200)))

	// the callback handle spends the receiver's funds only
	recv := &testReceiver{callback: func(a *Account, loan *Loan) error {
		assert.Equal(t, borrowerAddr, a.Owner())
		bal, err := a.Balance()
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(650), bal) // 50 own + 600 loan

		ok, err := a.Pay(bystander, big.NewInt(10))
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}}

	require.NoError(t, New(ledger).Execute(poolAddr, recv, big.NewInt(600), big.NewInt(12), []byte{}))

	bystanderBal, err := ledger.BalanceOf(bystander)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(210), bystanderBal)

	borrowerBal, err := ledger.BalanceOf(borrowerAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(28), borrowerBal) // 50 - 10 payout - 12 fee
}
