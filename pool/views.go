// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/pool/fixed"
)

// AvailableReward returns the profit (native units) addr could claim
// right now. Pure read of the stored counters; calling it repeatedly
// never changes the answer.
func (p *Pool) AvailableReward(addr citadel.Address) (*big.Int, error) {
	terms, err := p.Terms()
	if err != nil {
		return nil, err
	}
	c, err := p.loadCommon()
	if err != nil {
		return nil, err
	}
	u, err := p.loadUser(addr)
	if err != nil {
		return nil, err
	}
	avail := availableOf(u.Staked, c.Tps, &u.MissedProfit, u.ClaimedProfit)
	return fixed.Denormalize(avail, terms.Decimals), nil
}

// AvailableCtl returns the reward tokens addr could claim right now.
func (p *Pool) AvailableCtl(addr citadel.Address) (*big.Int, error) {
	c, err := p.loadCommon()
	if err != nil {
		return nil, err
	}
	u, err := p.loadUser(addr)
	if err != nil {
		return nil, err
	}
	return availableOf(u.Staked, c.CtlPerStaked, &u.MissedCtl, u.ClaimedCtl), nil
}

// CommonData returns the pool-wide snapshot with amounts denormalized
// to native units.
func (p *Pool) CommonData() (*CommonData, error) {
	terms, err := p.Terms()
	if err != nil {
		return nil, err
	}
	enabled, err := p.enabled.Get()
	if err != nil {
		return nil, err
	}
	c, err := p.loadCommon()
	if err != nil {
		return nil, err
	}
	return &CommonData{
		Asset:           terms.Asset,
		Decimals:        terms.Decimals,
		StartTime:       terms.StartTime,
		Enabled:         enabled,
		TotalStaked:     fixed.Denormalize(c.TotalStaked, terms.Decimals),
		TotalProfit:     fixed.Denormalize(c.TotalProfit, terms.Decimals),
		ReceiptProfit:   fixed.Denormalize(c.ReceiptProfit, terms.Decimals),
		DailyStaked:     fixed.Denormalize(c.DailyStaked.Mag, terms.Decimals),
		SignDailyStaked: c.DailyStaked.Neg,
		Tps:             new(big.Int).Set(c.Tps),
		PrevTps:         new(big.Int).Set(c.PrevTps),
		CtlPerStaked:    new(big.Int).Set(c.CtlPerStaked),
		LastMint:        c.LastMint,
		CurDay:          c.CurDay,
	}, nil
}

// UserData returns the snapshot of addr's position, including the
// derived available amounts.
func (p *Pool) UserData(addr citadel.Address) (*UserData, error) {
	terms, err := p.Terms()
	if err != nil {
		return nil, err
	}
	c, err := p.loadCommon()
	if err != nil {
		return nil, err
	}
	u, err := p.loadUser(addr)
	if err != nil {
		return nil, err
	}
	availReward := availableOf(u.Staked, c.Tps, &u.MissedProfit, u.ClaimedProfit)
	availCtl := availableOf(u.Staked, c.CtlPerStaked, &u.MissedCtl, u.ClaimedCtl)
	return &UserData{
		TotalStaked:      fixed.Denormalize(u.Staked, terms.Decimals),
		MissedProfit:     fixed.Denormalize(u.MissedProfit.Mag, terms.Decimals),
		SignMissedProfit: u.MissedProfit.Neg,
		ClaimedProfit:    fixed.Denormalize(u.ClaimedProfit, terms.Decimals),
		MissedCtl:        new(big.Int).Set(u.MissedCtl.Mag),
		SignMissedCtl:    u.MissedCtl.Neg,
		ClaimedCtl:       new(big.Int).Set(u.ClaimedCtl),
		AvailableReward:  fixed.Denormalize(availReward, terms.Decimals),
		AvailableCtl:     availCtl,
	}, nil
}
