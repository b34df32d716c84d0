// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/pool"
)

// Pool for marshal pool common data
type Pool struct {
	Asset         citadel.Address      `json:"asset"`
	Address       citadel.Address      `json:"address"`
	Decimals      uint8                `json:"decimals"`
	StartTime     uint64               `json:"startTime"`
	Enabled       bool                 `json:"enabled"`
	CurDay        uint64               `json:"curDay"`
	TotalStaked   math.HexOrDecimal256 `json:"totalStaked"`
	TotalProfit   math.HexOrDecimal256 `json:"totalProfit"`
	ReceiptProfit math.HexOrDecimal256 `json:"receiptProfit"`
	DailyStaked   math.HexOrDecimal256 `json:"dailyStaked"`
	SignDaily     bool                 `json:"signDailyStaked"`
	Tps           math.HexOrDecimal256 `json:"tokensPerStaked"`
	PrevTps       math.HexOrDecimal256 `json:"prevTokensPerStaked"`
	CtlPerStaked  math.HexOrDecimal256 `json:"ctlPerStaked"`
}

// Account for marshal one account's position in a pool
type Account struct {
	Staked          math.HexOrDecimal256 `json:"staked"`
	MissedProfit    math.HexOrDecimal256 `json:"missedProfit"`
	SignMissed      bool                 `json:"signMissedProfit"`
	ClaimedProfit   math.HexOrDecimal256 `json:"claimedProfit"`
	AvailableReward math.HexOrDecimal256 `json:"availableReward"`
	AvailableCtl    math.HexOrDecimal256 `json:"availableCtl"`
}

// Operation represents a stake-moving request body.
type Operation struct {
	Caller citadel.Address       `json:"caller"`
	To     *citadel.Address      `json:"to,omitempty"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func convertPool(asset citadel.Address, c *pool.CommonData) *Pool {
	return &Pool{
		Asset:         asset,
		Address:       citadel.PoolAddress(asset),
		Decimals:      c.Decimals,
		StartTime:     c.StartTime,
		Enabled:       c.Enabled,
		CurDay:        c.CurDay,
		TotalStaked:   math.HexOrDecimal256(*c.TotalStaked),
		TotalProfit:   math.HexOrDecimal256(*c.TotalProfit),
		ReceiptProfit: math.HexOrDecimal256(*c.ReceiptProfit),
		DailyStaked:   math.HexOrDecimal256(*c.DailyStaked),
		SignDaily:     c.SignDailyStaked,
		Tps:           math.HexOrDecimal256(*c.Tps),
		PrevTps:       math.HexOrDecimal256(*c.PrevTps),
		CtlPerStaked:  math.HexOrDecimal256(*c.CtlPerStaked),
	}
}

func convertAccount(u *pool.UserData) *Account {
	return &Account{
		Staked:          math.HexOrDecimal256(*u.TotalStaked),
		MissedProfit:    math.HexOrDecimal256(*u.MissedProfit),
		SignMissed:      u.SignMissedProfit,
		ClaimedProfit:   math.HexOrDecimal256(*u.ClaimedProfit),
		AvailableReward: math.HexOrDecimal256(*u.AvailableReward),
		AvailableCtl:    math.HexOrDecimal256(*u.AvailableCtl),
	}
}
