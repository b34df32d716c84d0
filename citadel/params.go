// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package citadel

// Constants of the staking ledger.
const (
	// DayLength is the length of one accounting period in seconds.
	// A period's distribution rate is frozen when the day index advances.
	DayLength uint64 = 86400

	// MaxDecimals is the highest token decimal count supported. Amounts of
	// assets with fewer decimals are normalized to this precision for rate
	// computations.
	MaxDecimals uint8 = 18
)
