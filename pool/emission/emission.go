// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package emission computes the time-proportional reward-token mint
// schedule of a pool. Minting accrues linearly at a fixed per-second
// rate while the pool holds stake; while the pool is idle the marker
// stays put and the whole window mints on the first call that finds
// stake to attribute it to.
package emission

import "math/big"

// Schedule holds the static emission parameters of one pool.
type Schedule struct {
	Start uint64   // activation time, unix seconds
	Rate  *big.Int // reward tokens minted per second, 18-decimals scaled
}

// Mint returns the reward amount accrued since the last mint and the
// new mint marker.
//
// Before the activation time nothing happens and the marker does not
// move. With zero stake nothing mints and the marker does not move
// either; the accrual window keeps growing and is distributed in full
// once there is stake.
func (s *Schedule) Mint(now, lastMint uint64, totalStaked *big.Int) (minted *big.Int, marker uint64) {
	if now <= s.Start {
		return new(big.Int), lastMint
	}
	if totalStaked.Sign() == 0 {
		return new(big.Int), lastMint
	}
	from := lastMint
	if s.Start > from {
		from = s.Start
	}
	if now <= from {
		return new(big.Int), lastMint
	}
	elapsed := new(big.Int).SetUint64(now - from)
	return elapsed.Mul(elapsed, s.Rate), now
}
