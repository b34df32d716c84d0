// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Citadel-Finance/citadel-pool-go/access"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

const testConfig = `
tokens:
  - name: Citadel Token
    symbol: CTL
    decimals: 18
  - name: Dai Stablecoin
    symbol: DAI
    decimals: 18
    balances:
      - address: "0x0000000000000000000000000000000000000101"
        amount: "10000000000000000000000"
admins:
  - "0x00000000000000000000000000000000000000ad"
borrowers:
  - "0x0000000000000000000000000000000000000b01"
pools:
  - asset: DAI
    startTime: 1600000000
    rewardRate: "1000000000000000000"
    apyTax: "7000000000000000"
    premiumCoeff: "12000000000000000"
    enabled: true
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Len(t, config.Tokens, 2)
	assert.Len(t, config.Pools, 1)
	assert.Equal(t, "DAI", config.Pools[0].Asset)
	assert.True(t, config.Pools[0].Enabled)
}

func TestBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))
	config, err := loadConfig(path)
	require.NoError(t, err)

	store, err := kv.NewMem()
	require.NoError(t, err)
	defer store.Close()

	f := factory.New(factoryAddr, store, citadel.TokenAddress(RewardSymbol))
	require.NoError(t, bootstrap(config, f, store, 1_600_000_000))

	dai := citadel.TokenAddress("DAI")
	assets, err := f.All()
	require.NoError(t, err)
	assert.Equal(t, []citadel.Address{dai}, assets)

	holder := citadel.MustParseAddress("0x0000000000000000000000000000000000000101")
	bal, err := token.New(dai, storage.NewContext(store)).BalanceOf(holder)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("10000000000000000000000", 10)
	assert.Equal(t, want, bal)

	ok, err := f.HasRole(access.BorrowerRole, citadel.MustParseAddress("0x0000000000000000000000000000000000000b01"))
	require.NoError(t, err)
	assert.True(t, ok)

	// a second start over the same store is a no-op
	require.NoError(t, bootstrap(config, f, store, 1_600_000_000))
	bal, err = token.New(dai, storage.NewContext(store)).BalanceOf(holder)
	require.NoError(t, err)
	assert.Equal(t, want, bal)
}
