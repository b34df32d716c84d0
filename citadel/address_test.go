// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package citadel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	str := "0xabcdef0123456789abcdef0123456789abcdef01"
	addr, err := ParseAddress(str)
	assert.Nil(t, err)
	assert.Equal(t, str, addr.String())

	// without 0x prefix
	addr, err = ParseAddress(str[2:])
	assert.Nil(t, err)
	assert.Equal(t, str, addr.String())

	_, err = ParseAddress("0x123")
	assert.Error(t, err)

	_, err = ParseAddress("zzcdef0123456789abcdef0123456789abcdef01")
	assert.Error(t, err)
}

func TestBytesToAddress(t *testing.T) {
	// short input extends from the left
	assert.Equal(t, MustParseAddress("0x0000000000000000000000000000000000000001"), BytesToAddress([]byte{0, 0, 0, 1}))
	assert.True(t, Address{}.IsZero())
	assert.False(t, Address{1}.IsZero())
}

func TestPoolAddress(t *testing.T) {
	asset := MustParseAddress("0xabcdef0123456789abcdef0123456789abcdef01")

	p1 := PoolAddress(asset)
	p2 := PoolAddress(asset)
	assert.Equal(t, p1, p2, "derivation must be deterministic")
	assert.NotEqual(t, asset, p1)
	assert.False(t, p1.IsZero())

	other := PoolAddress(Address{1})
	assert.NotEqual(t, p1, other)
}

func TestTokenAddress(t *testing.T) {
	assert.Equal(t, TokenAddress("CTL"), TokenAddress("CTL"))
	assert.NotEqual(t, TokenAddress("CTL"), TokenAddress("OUT"))
}
