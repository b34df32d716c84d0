// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package signed provides a sign-magnitude accumulator for accrual
// bookkeeping. Counters such as the per-account missed-profit debit can
// legitimately cross zero when stake is withdrawn at a higher rate than
// it was deposited at, so a bare unsigned magnitude is not enough.
package signed

import "math/big"

// Value is an integer held as a non-negative magnitude plus a sign flag.
// The zero Value is zero with positive sign. Magnitude zero always
// carries Neg == false so encodings stay canonical.
type Value struct {
	Neg bool
	Mag *big.Int
}

// New returns a zero-valued accumulator.
func New() *Value {
	return &Value{Mag: new(big.Int)}
}

// FromMag returns a positive Value holding a copy of mag.
func FromMag(mag *big.Int) *Value {
	return &Value{Mag: new(big.Int).Set(mag)}
}

// Copy returns an independent copy of v.
func (v *Value) Copy() *Value {
	return &Value{Neg: v.Neg, Mag: new(big.Int).Set(v.Mag)}
}

// Int converts v to a signed big.Int.
func (v *Value) Int() *big.Int {
	i := new(big.Int).Set(v.Mag)
	if v.Neg {
		i.Neg(i)
	}
	return i
}

// Sign reports -1, 0 or +1.
func (v *Value) Sign() int {
	if v.Mag.Sign() == 0 {
		return 0
	}
	if v.Neg {
		return -1
	}
	return 1
}

// Add adds the non-negative magnitude d to v, handling zero crossing.
func (v *Value) Add(d *big.Int) {
	v.apply(d, false)
}

// Sub subtracts the non-negative magnitude d from v, handling zero
// crossing.
func (v *Value) Sub(d *big.Int) {
	v.apply(d, true)
}

func (v *Value) apply(d *big.Int, neg bool) {
	if d.Sign() == 0 {
		return
	}
	if v.Neg == neg {
		v.Mag.Add(v.Mag, d)
		v.normalize()
		return
	}
	switch v.Mag.Cmp(d) {
	case 1:
		v.Mag.Sub(v.Mag, d)
	case 0:
		v.Mag.SetInt64(0)
		v.Neg = false
	case -1:
		v.Mag.Sub(d, v.Mag)
		v.Neg = neg
	}
	v.normalize()
}

func (v *Value) normalize() {
	if v.Mag.Sign() == 0 {
		v.Neg = false
	}
}

// ClampedSub returns max(0, a - v) where a is treated as a plain
// non-negative amount. It never mutates v.
func (v *Value) ClampedSub(a *big.Int) *big.Int {
	r := new(big.Int).Sub(a, v.Int())
	if r.Sign() < 0 {
		r.SetInt64(0)
	}
	return r
}
