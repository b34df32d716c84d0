// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool implements the accrual ledger of one staking pool.
//
// Profit (deposit tax and flash-loan fees) and the emitted reward token
// are distributed over stakers through two per-stake counters, tps and
// ctlPerStaked. A position never stores its earned amount directly:
// earnings are staked*rate minus a "missed" debit booked when the stake
// entered, so the counters only ever move forward and a mutation
// touches one position regardless of how many stakers exist.
package pool

import (
	"math/big"

	"github.com/Citadel-Finance/citadel-pool-go/access"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/log"
	"github.com/Citadel-Finance/citadel-pool-go/pool/emission"
	"github.com/Citadel-Finance/citadel-pool-go/pool/fixed"
	"github.com/Citadel-Finance/citadel-pool-go/pool/flashloan"
	"github.com/Citadel-Finance/citadel-pool-go/pool/receipt"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
	"github.com/Citadel-Finance/citadel-pool-go/pool/signed"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
)

var logger = log.WithContext("pkg", "pool")

var (
	slotTerms   = []byte("pool.terms")
	slotEnabled = []byte("pool.enabled")
	slotCommon  = []byte("pool.common")
	slotUsers   = []byte("pool.users")
)

// AssetLedger is the slice of the staked token's ledger the pool needs.
type AssetLedger interface {
	BalanceOf(addr citadel.Address) (*big.Int, error)
	Transfer(from, to citadel.Address, amount *big.Int) (bool, error)
}

// RewardToken mints and moves the emitted reward token.
type RewardToken interface {
	Mint(addr citadel.Address, amount *big.Int) error
	Transfer(from, to citadel.Address, amount *big.Int) (bool, error)
}

// RoleChecker answers capability queries, normally backed by the
// factory's access control.
type RoleChecker interface {
	Has(role access.Role, addr citadel.Address) (bool, error)
}

// Pool binds the ledger of one pool to its storage namespace and token
// collaborators. All mutating operations take the current time as an
// explicit unix-seconds argument and run the reward-mint and day-roll
// catch-up before their body.
type Pool struct {
	addr    citadel.Address
	context *storage.Context
	asset   AssetLedger
	reward  RewardToken
	roles   RoleChecker
	receipt *receipt.Service

	terms   *storage.Value[Terms]
	enabled *storage.Bool
	common  *storage.Value[common]
	users   *storage.Mapping[citadel.Address, user]
}

// New binds a pool to its storage namespace.
func New(addr citadel.Address, context *storage.Context, asset AssetLedger, reward RewardToken, roles RoleChecker) *Pool {
	return &Pool{
		addr:    addr,
		context: context,
		asset:   asset,
		reward:  reward,
		roles:   roles,
		receipt: receipt.New(addr, context),

		terms:   storage.NewValue[Terms](context, addr, slotTerms),
		enabled: storage.NewBool(context, addr, slotEnabled),
		common:  storage.NewValue[common](context, addr, slotCommon),
		users:   storage.NewMapping[citadel.Address, user](context, addr, slotUsers),
	}
}

// Address returns the pool's account address.
func (p *Pool) Address() citadel.Address {
	return p.addr
}

// Receipt returns the pool's stake-receipt service.
func (p *Pool) Receipt() *receipt.Service {
	return p.receipt
}

// Init writes the pool terms and receipt metadata and sets the initial
// enabled state.
func (p *Pool) Init(terms Terms, enabled bool, assetName, assetSymbol string) error {
	if err := p.terms.Set(terms); err != nil {
		return err
	}
	p.enabled.Set(enabled)
	return p.receipt.Init(assetName, assetSymbol, terms.Decimals)
}

// SetEnabled flips the pool's enabled state. Authorization is the
// factory's concern.
func (p *Pool) SetEnabled(enabled bool) {
	p.enabled.Set(enabled)
}

// Enabled reports whether the pool accepts stake-moving operations.
func (p *Pool) Enabled() (bool, error) {
	return p.enabled.Get()
}

// Terms returns the pool's creation parameters.
func (p *Pool) Terms() (Terms, error) {
	t, ok, err := p.terms.Get()
	if err != nil {
		return Terms{}, err
	}
	if !ok {
		return Terms{}, reverts.New(reverts.ArithmeticError, "Pool: Pool not initialized")
	}
	return t, nil
}

func (p *Pool) loadCommon() (*common, error) {
	c, _, err := p.common.Get()
	if err != nil {
		return nil, err
	}
	return c.norm(), nil
}

func (p *Pool) loadUser(addr citadel.Address) (*user, error) {
	u, err := p.users.Get(addr)
	if err != nil {
		return nil, err
	}
	return u.norm(), nil
}

// catchUp runs the reward-token mint and the day roll against the
// pre-mutation state. It is idempotent for a fixed now.
func (p *Pool) catchUp(terms *Terms, c *common, now uint64) error {
	// reward emission on the pre-mutation total
	schedule := emission.Schedule{Start: terms.StartTime, Rate: terms.RewardRate}
	minted, marker := schedule.Mint(now, c.LastMint, c.TotalStaked)
	if minted.Sign() > 0 {
		perStaked, err := fixed.ScaledDiv(minted, c.TotalStaked)
		if err != nil {
			return err
		}
		c.CtlPerStaked.Add(c.CtlPerStaked, perStaked)
		if err := p.reward.Mint(p.addr, minted); err != nil {
			return err
		}
	}
	c.LastMint = marker

	// day roll closes the accounting period
	if now > terms.StartTime {
		day := (now - terms.StartTime) / citadel.DayLength
		if day > c.CurDay {
			c.PrevTps.Set(c.Tps)
			c.ReceiptProfit.SetInt64(0)
			c.DailyStaked = *signed.New()
			c.CurDay = day
		}
	}
	return nil
}

// Deposit stakes amount (native units) for caller. The apy tax is
// retained by the pool and distributed as profit.
func (p *Pool) Deposit(caller citadel.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	enabled, err := p.enabled.Get()
	if err != nil {
		return err
	}
	if !enabled {
		return reverts.New(reverts.PoolDisabled, "Pool: Pool disabled")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}
	u, err := p.loadUser(caller)
	if err != nil {
		return err
	}

	norm := fixed.Normalize(amount, terms.Decimals)
	tax := fixed.ScaledMul(norm, terms.ApyTax)
	net := new(big.Int).Sub(norm, tax)

	// debit the new stake at the rates already accrued so it only
	// earns from here on
	u.MissedProfit.Add(fixed.ScaledMul(net, c.PrevTps))
	u.MissedCtl.Add(fixed.ScaledMul(net, c.CtlPerStaked))
	u.Staked.Add(u.Staked, net)

	c.TotalStaked.Add(c.TotalStaked, net)
	c.TotalProfit.Add(c.TotalProfit, tax)
	c.ReceiptProfit.Add(c.ReceiptProfit, tax)
	c.DailyStaked.Add(net)

	// distribute the period's profit bucket over the new total
	perStaked, err := fixed.ScaledDiv(c.ReceiptProfit, c.TotalStaked)
	if err != nil {
		return err
	}
	candidate := new(big.Int).Add(c.PrevTps, perStaked)
	if candidate.Cmp(c.Tps) > 0 {
		c.Tps.Set(candidate)
	}

	ok, err := p.asset.Transfer(caller, p.addr, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Transfer failed")
	}
	if err := p.receipt.Add(caller, net); err != nil {
		return err
	}
	if err := p.users.Set(caller, *u); err != nil {
		return err
	}
	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("deposit", "pool", p.addr, "staker", caller, "amount", amount, "tax", tax)
	return nil
}

// Withdraw unstakes amount (native units) and pushes the asset back to
// the caller. The position keeps its claimed counters.
func (p *Pool) Withdraw(caller citadel.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	enabled, err := p.enabled.Get()
	if err != nil {
		return err
	}
	if !enabled {
		return reverts.New(reverts.PoolDisabled, "Pool: Pool disabled")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}
	u, err := p.loadUser(caller)
	if err != nil {
		return err
	}

	norm := fixed.Normalize(amount, terms.Decimals)
	if norm.Cmp(u.Staked) > 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}

	// credit the leaving stake at the current rates so the earnings
	// accrued so far survive the withdrawal
	u.MissedProfit.Sub(fixed.ScaledMul(norm, c.Tps))
	u.MissedCtl.Sub(fixed.ScaledMul(norm, c.CtlPerStaked))
	u.Staked.Sub(u.Staked, norm)

	c.TotalStaked.Sub(c.TotalStaked, norm)
	c.DailyStaked.Sub(norm)

	if err := p.receipt.Sub(caller, norm); err != nil {
		return err
	}
	ok, err := p.asset.Transfer(p.addr, caller, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Transfer failed")
	}
	if err := p.users.Set(caller, *u); err != nil {
		return err
	}
	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("withdraw", "pool", p.addr, "staker", caller, "amount", amount)
	return nil
}

// Transfer moves staked amount (native units) between two positions, a
// withdraw-then-deposit without tax and without asset movement. Pool
// totals and buckets stay untouched.
func (p *Pool) Transfer(from, to citadel.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}
	fromUser, err := p.loadUser(from)
	if err != nil {
		return err
	}
	toUser, err := p.loadUser(to)
	if err != nil {
		return err
	}

	norm := fixed.Normalize(amount, terms.Decimals)
	if norm.Cmp(fromUser.Staked) > 0 {
		return reverts.New(reverts.InsufficientBalance, "Pool: Insufficient staked balance")
	}

	// both ends settle at the current rates: the sender keeps earnings
	// accrued so far, the recipient starts earning from now
	profitAdj := fixed.ScaledMul(norm, c.Tps)
	ctlAdj := fixed.ScaledMul(norm, c.CtlPerStaked)

	fromUser.MissedProfit.Sub(profitAdj)
	fromUser.MissedCtl.Sub(ctlAdj)
	fromUser.Staked.Sub(fromUser.Staked, norm)

	toUser.MissedProfit.Add(profitAdj)
	toUser.MissedCtl.Add(ctlAdj)
	toUser.Staked.Add(toUser.Staked, norm)

	if err := p.receipt.Move(from, to, norm); err != nil {
		return err
	}
	if err := p.users.Set(from, *fromUser); err != nil {
		return err
	}
	if err := p.users.Set(to, *toUser); err != nil {
		return err
	}
	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("stake transfer", "pool", p.addr, "from", from, "to", to, "amount", amount)
	return nil
}

// FlashLoan lends amount (native units) to receiver for the duration of
// its callback. The fee joins the pool's profit and is distributed over
// current stakers immediately.
func (p *Pool) FlashLoan(caller citadel.Address, receiver flashloan.Receiver, amount, fee *big.Int, data []byte, now uint64) error {
	isBorrower, err := p.roles.Has(access.BorrowerRole, caller)
	if err != nil {
		return err
	}
	if !isBorrower {
		return reverts.New(reverts.NotBorrower, "Pool: Caller is not a borrower")
	}
	enabled, err := p.enabled.Get()
	if err != nil {
		return err
	}
	if !enabled {
		return reverts.New(reverts.PoolDisabled, "Pool: Pool disabled")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}

	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	norm := fixed.Normalize(amount, terms.Decimals)
	if norm.Cmp(c.TotalStaked) > 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	if fee == nil {
		return reverts.New(reverts.InvalidFee, "Pool: Profit amount is invalid")
	}
	feeNorm := fixed.Normalize(fee, terms.Decimals)
	if feeNorm.Cmp(fixed.ScaledMul(norm, terms.PremiumCoeff)) < 0 {
		return reverts.New(reverts.InvalidFee, "Pool: Profit amount is invalid")
	}

	if err := flashloan.New(p.asset).Execute(p.addr, receiver, amount, fee, data); err != nil {
		return err
	}

	c.TotalProfit.Add(c.TotalProfit, feeNorm)
	c.ReceiptProfit.Add(c.ReceiptProfit, feeNorm)
	perStaked, err := fixed.ScaledDiv(feeNorm, c.TotalStaked)
	if err != nil {
		return err
	}
	c.Tps.Add(c.Tps, perStaked)

	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("flash loan", "pool", p.addr, "borrower", caller, "amount", amount, "fee", fee)
	return nil
}

// ClaimReward pays out amount (native units) of accrued profit in the
// staked asset.
func (p *Pool) ClaimReward(caller citadel.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}
	u, err := p.loadUser(caller)
	if err != nil {
		return err
	}

	norm := fixed.Normalize(amount, terms.Decimals)
	available := availableOf(u.Staked, c.Tps, &u.MissedProfit, u.ClaimedProfit)
	if norm.Cmp(available) > 0 {
		return reverts.New(reverts.ExceedsAvailable, "Pool: Claim exceeds available reward")
	}

	u.ClaimedProfit.Add(u.ClaimedProfit, norm)
	ok, err := p.asset.Transfer(p.addr, caller, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Transfer failed")
	}
	if err := p.users.Set(caller, *u); err != nil {
		return err
	}
	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("claim reward", "pool", p.addr, "staker", caller, "amount", amount)
	return nil
}

// ClaimCtl pays out amount of accrued reward tokens.
func (p *Pool) ClaimCtl(caller citadel.Address, amount *big.Int, now uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidAmount, "Pool: Amount is invalid")
	}
	terms, err := p.Terms()
	if err != nil {
		return err
	}
	c, err := p.loadCommon()
	if err != nil {
		return err
	}
	if err := p.catchUp(&terms, c, now); err != nil {
		return err
	}
	u, err := p.loadUser(caller)
	if err != nil {
		return err
	}

	available := availableOf(u.Staked, c.CtlPerStaked, &u.MissedCtl, u.ClaimedCtl)
	if amount.Cmp(available) > 0 {
		return reverts.New(reverts.ExceedsAvailable, "Pool: Claim exceeds available reward")
	}

	u.ClaimedCtl.Add(u.ClaimedCtl, amount)
	ok, err := p.reward.Transfer(p.addr, caller, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.TransferFailed, "Pool: Transfer failed")
	}
	if err := p.users.Set(caller, *u); err != nil {
		return err
	}
	if err := p.common.Set(*c); err != nil {
		return err
	}

	logger.Debug("claim ctl", "pool", p.addr, "staker", caller, "amount", amount)
	return nil
}

// availableOf computes clamp0(staked*rate - missed - claimed) on
// normalized values.
func availableOf(staked, rate *big.Int, missed *signed.Value, claimed *big.Int) *big.Int {
	earned := fixed.ScaledMul(staked, rate)
	avail := missed.ClampedSub(earned)
	avail.Sub(avail, claimed)
	if avail.Sign() < 0 {
		avail.SetInt64(0)
	}
	return avail
}
