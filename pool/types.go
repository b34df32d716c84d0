// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/pool/signed"
)

// Terms are the immutable parameters a pool is created with. Rates and
// coefficients are 18-decimals scaled; StartTime is unix seconds.
type Terms struct {
	Asset        citadel.Address
	Decimals     uint8
	StartTime    uint64
	ApyTax       *big.Int
	PremiumCoeff *big.Int
	RewardRate   *big.Int
}

// common is the pool-wide accounting record. All amounts are normalized
// to the 18-decimal internal scale; Tps, PrevTps and CtlPerStaked are
// scaled per-stake-unit rates.
type common struct {
	TotalStaked   *big.Int
	TotalProfit   *big.Int
	ReceiptProfit *big.Int
	DailyStaked   signed.Value
	Tps           *big.Int
	PrevTps       *big.Int
	CtlPerStaked  *big.Int
	LastMint      uint64
	CurDay        uint64
}

func (c *common) norm() *common {
	if c.TotalStaked == nil {
		c.TotalStaked = new(big.Int)
	}
	if c.TotalProfit == nil {
		c.TotalProfit = new(big.Int)
	}
	if c.ReceiptProfit == nil {
		c.ReceiptProfit = new(big.Int)
	}
	if c.DailyStaked.Mag == nil {
		c.DailyStaked.Mag = new(big.Int)
	}
	if c.Tps == nil {
		c.Tps = new(big.Int)
	}
	if c.PrevTps == nil {
		c.PrevTps = new(big.Int)
	}
	if c.CtlPerStaked == nil {
		c.CtlPerStaked = new(big.Int)
	}
	return c
}

// user is one account's position in a pool. Positions are created
// lazily on first deposit and never deleted.
type user struct {
	Staked        *big.Int
	MissedProfit  signed.Value
	ClaimedProfit *big.Int
	MissedCtl     signed.Value
	ClaimedCtl    *big.Int
}

func (u *user) norm() *user {
	if u.Staked == nil {
		u.Staked = new(big.Int)
	}
	if u.MissedProfit.Mag == nil {
		u.MissedProfit.Mag = new(big.Int)
	}
	if u.ClaimedProfit == nil {
		u.ClaimedProfit = new(big.Int)
	}
	if u.MissedCtl.Mag == nil {
		u.MissedCtl.Mag = new(big.Int)
	}
	if u.ClaimedCtl == nil {
		u.ClaimedCtl = new(big.Int)
	}
	return u
}

// CommonData is the read-only pool snapshot. Amounts are in the asset's
// native units; the per-stake rates stay 18-decimals scaled.
type CommonData struct {
	Asset           citadel.Address
	Decimals        uint8
	StartTime       uint64
	Enabled         bool
	TotalStaked     *big.Int
	TotalProfit     *big.Int
	ReceiptProfit   *big.Int
	DailyStaked     *big.Int
	SignDailyStaked bool
	Tps             *big.Int
	PrevTps         *big.Int
	CtlPerStaked    *big.Int
	LastMint        uint64
	CurDay          uint64
}

// UserData is the read-only snapshot of one account's position, in
// native units.
type UserData struct {
	TotalStaked      *big.Int
	MissedProfit     *big.Int
	SignMissedProfit bool
	ClaimedProfit    *big.Int
	MissedCtl        *big.Int
	SignMissedCtl    bool
	ClaimedCtl       *big.Int
	AvailableReward  *big.Int
	AvailableCtl     *big.Int
}
