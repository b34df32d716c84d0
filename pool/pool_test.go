// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Citadel-Finance/citadel-pool-go/access"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/pool/flashloan"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

const startTime uint64 = 1_600_000_000

var (
	factoryAddr = citadel.MustParseAddress("0x00000000000000000000000000000000000000f1")
	borrower    = citadel.MustParseAddress("0x0000000000000000000000000000000000000b01")
	user1       = citadel.MustParseAddress("0x0000000000000000000000000000000000000101")
	user2       = citadel.MustParseAddress("0x0000000000000000000000000000000000000102")
	user3       = citadel.MustParseAddress("0x0000000000000000000000000000000000000103")
	user4       = citadel.MustParseAddress("0x0000000000000000000000000000000000000104")
)

// wei parses a decimal token amount ("6.999999999999999654") into
// 18-decimal integer units.
func wei(s string) *big.Int {
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 18 {
		panic("too many decimals: " + s)
	}
	frac += strings.Repeat("0", 18-len(frac))
	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		panic("bad amount: " + s)
	}
	return v
}

type testEnv struct {
	t     *testing.T
	pool  *Pool
	asset *token.Token
	ctl   *token.Token
	roles *access.Control
}

func newTestEnv(t *testing.T, rewardRate *big.Int) *testEnv {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	context := storage.NewContext(store)
	asset := token.New(citadel.TokenAddress("OUT"), context)
	require.NoError(t, asset.Init(token.Metadata{Name: "OUTSIDE", Symbol: "OUT", Decimals: 18}))
	ctl := token.New(citadel.TokenAddress("CTL"), context)
	require.NoError(t, ctl.Init(token.Metadata{Name: "Citadel Token", Symbol: "CTL", Decimals: 18}))

	roles := access.New(factoryAddr, context)
	poolAddr := citadel.PoolAddress(asset.Address())
	p := New(poolAddr, context, asset, ctl, roles)
	require.NoError(t, p.Init(Terms{
		Asset:        asset.Address(),
		Decimals:     18,
		StartTime:    startTime,
		ApyTax:       wei("0.007"),
		PremiumCoeff: wei("0.012"),
		RewardRate:   rewardRate,
	}, true, "OUTSIDE", "OUT"))

	for _, u := range []citadel.Address{user1, user2, user3, user4} {
		require.NoError(t, asset.Mint(u, wei("10000")))
	}
	return &testEnv{t: t, pool: p, asset: asset, ctl: ctl, roles: roles}
}

func (e *testEnv) assertCommon(curDay uint64, tps, prevTps, totalStaked, receiptProfit, totalProfit, dailyStaked string, dailySign bool) {
	e.t.Helper()
	c, err := e.pool.CommonData()
	require.NoError(e.t, err)
	assert.Equal(e.t, curDay, c.CurDay, "curDay")
	assert.Equal(e.t, wei(tps), c.Tps, "tps")
	assert.Equal(e.t, wei(prevTps), c.PrevTps, "prevTps")
	assert.Equal(e.t, wei(totalStaked), c.TotalStaked, "totalStaked")
	assert.Equal(e.t, wei(receiptProfit), c.ReceiptProfit, "receiptProfit")
	assert.Equal(e.t, wei(totalProfit), c.TotalProfit, "totalProfit")
	assert.Equal(e.t, wei(dailyStaked), c.DailyStaked, "dailyStaked")
	assert.Equal(e.t, dailySign, c.SignDailyStaked, "signDailyStaked")
}

func (e *testEnv) assertUser(addr citadel.Address, staked, missedProfit string, missedSign bool, available string) {
	e.t.Helper()
	u, err := e.pool.UserData(addr)
	require.NoError(e.t, err)
	assert.Equal(e.t, wei(staked), u.TotalStaked, "user totalStaked")
	assert.Equal(e.t, wei(missedProfit), u.MissedProfit, "user missedProfit")
	assert.Equal(e.t, missedSign, u.SignMissedProfit, "user signMissedProfit")
	assert.Equal(e.t, wei(available), u.AvailableReward, "availableReward")

	bal, err := e.pool.Receipt().BalanceOf(addr)
	require.NoError(e.t, err)
	assert.Equal(e.t, wei(staked), bal, "receipt balance")
}

func TestDepositWithdrawClaimScenario(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	p := e.pool

	// day 0
	require.NoError(t, p.Deposit(user1, wei("1000"), startTime+100))
	e.assertCommon(0, "0.007049345417925478", "0", "993", "7", "7", "993", false)
	e.assertUser(user1, "993", "0", false, "6.999999999999999654")

	require.NoError(t, p.Deposit(user2, wei("1000"), startTime+100))
	e.assertCommon(0, "0.007049345417925478", "0", "1986", "14", "14", "1986", false)
	e.assertUser(user2, "993", "0", false, "6.999999999999999654")

	// day 1
	require.NoError(t, p.Deposit(user3, wei("2000"), startTime+86600))
	e.assertCommon(1, "0.010574018126888217", "0.007049345417925478", "3972", "14", "28", "1986", false)
	e.assertUser(user3, "1986", "13.999999999999999308", false, "6.999999999999999654")

	// day 3
	require.NoError(t, p.Deposit(user2, wei("3000"), startTime+259400))
	e.assertCommon(3, "0.013595166163141993", "0.010574018126888217", "6951", "21", "49", "2979", false)
	e.assertUser(user2, "3972", "31.499999999999998443", false, "22.499999999999997753")

	// day 5
	require.NoError(t, p.Withdraw(user2, wei("1000"), startTime+432200))
	require.NoError(t, p.ClaimReward(user2, wei("20"), startTime+432200))
	e.assertCommon(5, "0.013595166163141993", "0.013595166163141993", "5951", "0", "49", "1000", true)
	e.assertUser(user2, "2972", "17.904833836858005443", false, "2.499999999999997753")

	// day 7
	require.NoError(t, p.Deposit(user1, wei("2000"), startTime+605000))
	require.NoError(t, p.ClaimReward(user1, wei("10"), startTime+605000))
	e.assertCommon(7, "0.015359056801922388", "0.013595166163141993", "7937", "14", "63", "1986", false)
	e.assertUser(user1, "2979", "26.999999999999998098", false, "8.754630212926795754")

	// day 10
	require.NoError(t, p.Withdraw(user1, wei("2000"), startTime+864200))
	e.assertCommon(10, "0.015359056801922388", "0.015359056801922388", "5937", "0", "63", "2000", true)
	e.assertUser(user1, "979", "3.718113603844777902", true, "8.754630212926795754")

	// day 11
	require.NoError(t, p.Deposit(user4, wei("600"), startTime+950600))
	e.assertCommon(11, "0.01600196642719792", "0.015359056801922388", "6532.8", "4.2", "67.2", "595.8", false)
	e.assertUser(user4, "595.8", "9.15092604258535877", false, "0.383045554739161966")

	// day 12: stake transfer settles both ends at the current rate, so
	// neither side's available reward moves
	require.NoError(t, p.Transfer(user3, user4, wei("615.66"), startTime+1037000))
	e.assertCommon(12, "0.01600196642719792", "0.01600196642719792", "6532.8", "0", "67.2", "0", false)
	e.assertUser(user3, "1370.34", "4.148229349431327881", false, "17.779905324415069811")
	e.assertUser(user4, "1211.46", "19.002696693154030197", false, "0.383045554739161966")
}

func TestDepositChecks(t *testing.T) {
	e := newTestEnv(t, new(big.Int))

	err := e.pool.Deposit(user1, wei("0"), startTime+100)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))
	assert.EqualError(t, err, "Pool: Amount is invalid")

	e.pool.SetEnabled(false)
	err = e.pool.Deposit(user1, wei("100"), startTime+100)
	assert.True(t, reverts.Is(err, reverts.PoolDisabled))
	assert.EqualError(t, err, "Pool: Pool disabled")
}

func TestWithdrawChecks(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	require.NoError(t, e.pool.Deposit(user1, wei("1000"), startTime+100))

	err := e.pool.Withdraw(user1, wei("0"), startTime+200)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))

	// 993 staked after tax
	err = e.pool.Withdraw(user1, wei("994"), startTime+200)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))

	e.pool.SetEnabled(false)
	err = e.pool.Withdraw(user1, wei("100"), startTime+200)
	assert.True(t, reverts.Is(err, reverts.PoolDisabled))
}

func TestWithdrawKeepsAccruedReward(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	require.NoError(t, e.pool.Deposit(user1, wei("1000"), startTime+100))
	require.NoError(t, e.pool.Withdraw(user1, wei("100"), startTime+200))

	e.assertUser(user1, "893", "0.7049345417925478", true, "6.999999999999999654")

	bal, err := e.asset.BalanceOf(user1)
	require.NoError(t, err)
	assert.Equal(t, wei("9100"), bal)
}

func TestTransferChecks(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	require.NoError(t, e.pool.Deposit(user1, wei("1000"), startTime+100))

	err := e.pool.Transfer(user1, user2, wei("994"), startTime+200)
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))

	err = e.pool.Transfer(user1, user2, wei("0"), startTime+200)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))
}

type repayingReceiver struct {
	addr citadel.Address
}

func (r *repayingReceiver) Address() citadel.Address { return r.addr }

func (r *repayingReceiver) OnFlashLoan(*flashloan.Account, *flashloan.Loan) error {
	return nil
}

func TestFlashLoanChecks(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	recv := &repayingReceiver{addr: borrower}

	err := e.pool.FlashLoan(borrower, recv, wei("1000"), wei("12"), nil, startTime+100)
	assert.True(t, reverts.Is(err, reverts.NotBorrower))
	assert.EqualError(t, err, "Pool: Caller is not a borrower")

	require.NoError(t, e.roles.Grant(access.BorrowerRole, borrower))

	e.pool.SetEnabled(false)
	err = e.pool.FlashLoan(borrower, recv, wei("1000"), wei("12"), nil, startTime+100)
	assert.True(t, reverts.Is(err, reverts.PoolDisabled))
	e.pool.SetEnabled(true)

	err = e.pool.FlashLoan(borrower, recv, wei("0"), wei("12"), nil, startTime+100)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))

	require.NoError(t, e.pool.Deposit(user1, wei("1000"), startTime+100))

	// 993 staked: a larger loan is rejected
	err = e.pool.FlashLoan(borrower, recv, wei("994"), wei("12"), nil, startTime+100)
	assert.True(t, reverts.Is(err, reverts.InvalidAmount))

	// 0.012*993 = 11.916
	err = e.pool.FlashLoan(borrower, recv, wei("993"), wei("11.915"), nil, startTime+100)
	assert.True(t, reverts.Is(err, reverts.InvalidFee))
	assert.EqualError(t, err, "Pool: Profit amount is invalid")
}

func TestFlashLoan(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	require.NoError(t, e.roles.Grant(access.BorrowerRole, borrower))
	require.NoError(t, e.pool.Deposit(user1, wei("1008"), startTime+100))

	// fee paid out of the receiver's own funds
	require.NoError(t, e.asset.Mint(borrower, wei("12")))
	recv := &repayingReceiver{addr: borrower}
	require.NoError(t, e.pool.FlashLoan(borrower, recv, wei("1000"), wei("12"), nil, startTime+200))

	// 0.007*1008 + 12 = 19.056
	c, err := e.pool.CommonData()
	require.NoError(t, err)
	assert.Equal(t, wei("19.056"), c.TotalProfit)
	assert.Equal(t, wei("1000.944"), c.TotalStaked)
}

func TestClaimRewardAfterFlashLoan(t *testing.T) {
	e := newTestEnv(t, new(big.Int))
	require.NoError(t, e.roles.Grant(access.BorrowerRole, borrower))
	require.NoError(t, e.pool.Deposit(user1, wei("1000"), startTime+100))

	avail, err := e.pool.AvailableReward(user1)
	require.NoError(t, err)
	assert.Equal(t, wei("6.999999999999999654"), avail)

	require.NoError(t, e.asset.Mint(borrower, wei("6")))
	recv := &repayingReceiver{addr: borrower}
	require.NoError(t, e.pool.FlashLoan(borrower, recv, wei("500"), wei("6"), nil, startTime+200))

	c, err := e.pool.CommonData()
	require.NoError(t, err)
	assert.Equal(t, wei("13"), c.TotalProfit)
	assert.Equal(t, wei("993"), c.TotalStaked)

	avail, err = e.pool.AvailableReward(user1)
	require.NoError(t, err)
	assert.Equal(t, wei("12.99999999999999879"), avail)

	// claim everything, then the well is dry
	require.NoError(t, e.pool.ClaimReward(user1, avail, startTime+300))
	avail, err = e.pool.AvailableReward(user1)
	require.NoError(t, err)
	assert.Equal(t, 0, avail.Sign())

	err = e.pool.ClaimReward(user1, wei("1"), startTime+400)
	assert.True(t, reverts.Is(err, reverts.ExceedsAvailable))
}

func TestCtlEmission(t *testing.T) {
	// 1 CTL per second
	e := newTestEnv(t, wei("1"))
	p := e.pool

	// the pool is empty heading into this deposit, so the mint marker
	// stays put and the window keeps growing
	require.NoError(t, p.Deposit(user1, wei("1000"), startTime+100))
	c, err := p.CommonData()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.LastMint)

	// the full window since activation mints in one go: 1000s at
	// 1 CTL/s spread over 993 staked
	require.NoError(t, p.Deposit(user2, wei("1000"), startTime+1000))

	c, err = p.CommonData()
	require.NoError(t, err)
	assert.Equal(t, startTime+1000, c.LastMint)

	minted, err := e.ctl.BalanceOf(p.Address())
	require.NoError(t, err)
	assert.Equal(t, wei("1000"), minted)

	// user1 owns the whole emission window, user2 entered after it.
	// 993 * floor(1000/993 * 1e18) loses 346 wei to truncation.
	availCtl, err := p.AvailableCtl(user1)
	require.NoError(t, err)
	assert.Equal(t, wei("999.999999999999999654"), availCtl)

	availCtl, err = p.AvailableCtl(user2)
	require.NoError(t, err)
	assert.Equal(t, 0, availCtl.Sign())

	// claiming moves CTL out of the pool account
	require.NoError(t, p.ClaimCtl(user1, wei("100"), startTime+1000))
	bal, err := e.ctl.BalanceOf(user1)
	require.NoError(t, err)
	assert.Equal(t, wei("100"), bal)

	err = p.ClaimCtl(user2, wei("1"), startTime+1000)
	assert.True(t, reverts.Is(err, reverts.ExceedsAvailable))
}
