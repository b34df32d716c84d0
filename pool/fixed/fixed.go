// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixed implements the ledger's scaled integer arithmetic. The scale
// is a global 1e18 regardless of an asset's own decimals; amounts of assets
// with fewer decimals are normalized before rate computations and
// denormalized back at the balance boundary. All divisions truncate toward
// zero, so the engine never over-distributes; the sub-unit remainder stays
// in the pool's undistributed balance.
package fixed

import (
	"math/big"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
)

// Scale returns the global fixed-point scale, 1e18.
func Scale() *big.Int {
	return new(big.Int).Set(scale)
}

var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ScaledMul returns a*b/1e18. The intermediate product is exact (big.Int),
// the final division truncates.
func ScaledMul(a, b *big.Int) *big.Int {
	x := new(big.Int).Mul(a, b)
	return x.Div(x, scale)
}

// ScaledDiv returns a*1e18/b, truncated.
func ScaledDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, reverts.New(reverts.ArithmeticError, "Pool: Division by zero")
	}
	x := new(big.Int).Mul(a, scale)
	return x.Div(x, b), nil
}

// Normalize scales a native-decimal amount up to the global 18-decimal scale.
func Normalize(amount *big.Int, decimals uint8) *big.Int {
	if decimals >= citadel.MaxDecimals {
		return new(big.Int).Set(amount)
	}
	return new(big.Int).Mul(amount, pow10(citadel.MaxDecimals-decimals))
}

// Denormalize scales an 18-decimal internal amount down to native decimals,
// truncating.
func Denormalize(amount *big.Int, decimals uint8) *big.Int {
	if decimals >= citadel.MaxDecimals {
		return new(big.Int).Set(amount)
	}
	return new(big.Int).Div(amount, pow10(citadel.MaxDecimals-decimals))
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
