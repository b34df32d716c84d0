// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

const startTime uint64 = 1_600_000_000

var (
	admin = citadel.MustParseAddress("0x00000000000000000000000000000000000000ad")
	user1 = citadel.MustParseAddress("0x0000000000000000000000000000000000000101")
	user2 = citadel.MustParseAddress("0x0000000000000000000000000000000000000102")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func newTestServer(t *testing.T) (*httptest.Server, citadel.Address) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	context := storage.NewContext(store)
	ctl := token.New(citadel.TokenAddress("CTL"), context)
	require.NoError(t, ctl.Init(token.Metadata{Name: "Citadel Token", Symbol: "CTL", Decimals: 18}))
	asset := token.New(citadel.TokenAddress("OUT"), context)
	require.NoError(t, asset.Init(token.Metadata{Name: "OUTSIDE", Symbol: "OUT", Decimals: 18}))
	require.NoError(t, asset.Mint(user1, ether(10000)))
	require.NoError(t, context.Commit())

	f := factory.New(citadel.MustParseAddress("0x00000000000000000000000000000000000000f1"), store, ctl.Address())
	require.NoError(t, f.Init(admin))
	_, err = f.AddPool(admin, asset.Address(), factory.PoolTerms{
		StartTime:    startTime,
		RewardRate:   new(big.Int),
		ApyTax:       new(big.Int).Mul(big.NewInt(7), big.NewInt(1e15)),
		PremiumCoeff: new(big.Int).Mul(big.NewInt(12), big.NewInt(1e15)),
	}, true)
	require.NoError(t, err)

	router := mux.NewRouter()
	New(f, func() uint64 { return startTime + 100 }).Mount(router, "/pools")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, asset.Address()
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	return r, res.StatusCode
}

func httpPost(t *testing.T, url string, body any) ([]byte, int) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	return r, res.StatusCode
}

func TestGetPools(t *testing.T) {
	ts, asset := newTestServer(t)

	body, status := httpGet(t, ts.URL+"/pools")
	require.Equal(t, http.StatusOK, status)
	var list []*Pool
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, asset, list[0].Asset)
	assert.Equal(t, citadel.PoolAddress(asset), list[0].Address)
	assert.True(t, list[0].Enabled)

	body, status = httpGet(t, ts.URL+"/pools/"+asset.String())
	require.Equal(t, http.StatusOK, status)
	var one Pool
	require.NoError(t, json.Unmarshal(body, &one))
	assert.Equal(t, uint8(18), one.Decimals)

	_, status = httpGet(t, ts.URL+"/pools/"+citadel.TokenAddress("NOPE").String())
	assert.Equal(t, http.StatusNotFound, status)

	_, status = httpGet(t, ts.URL+"/pools/not-an-address")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDepositWithdrawOverHTTP(t *testing.T) {
	ts, asset := newTestServer(t)
	base := ts.URL + "/pools/" + asset.String()

	_, status := httpPost(t, base+"/deposits", map[string]any{
		"caller": user1.String(),
		"amount": ether(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)

	body, status := httpGet(t, base+"/accounts/"+user1.String())
	require.Equal(t, http.StatusOK, status)
	var acc Account
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, ether(993), (*big.Int)(&acc.Staked))

	// a failed operation reports the ledger's message
	body, status = httpPost(t, base+"/withdrawals", map[string]any{
		"caller": user1.String(),
		"amount": ether(994).String(),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Pool: Amount is invalid")

	_, status = httpPost(t, base+"/transfers", map[string]any{
		"caller": user1.String(),
		"to":     user2.String(),
		"amount": ether(100).String(),
	})
	require.Equal(t, http.StatusOK, status)

	body, status = httpGet(t, base+"/accounts/"+user2.String())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, ether(100), (*big.Int)(&acc.Staked))
}

func TestClaimOverHTTP(t *testing.T) {
	ts, asset := newTestServer(t)
	base := ts.URL + "/pools/" + asset.String()

	_, status := httpPost(t, base+"/deposits", map[string]any{
		"caller": user1.String(),
		"amount": ether(1000).String(),
	})
	require.Equal(t, http.StatusOK, status)

	avail, _ := new(big.Int).SetString("6999999999999999654", 10)
	_, status = httpPost(t, base+"/claims", map[string]any{
		"caller": user1.String(),
		"amount": avail.String(),
	})
	require.Equal(t, http.StatusOK, status)

	body, status := httpGet(t, base+"/accounts/"+user1.String())
	require.Equal(t, http.StatusOK, status)
	var acc Account
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, 0, (*big.Int)(&acc.AvailableReward).Sign())
	assert.Equal(t, avail, (*big.Int)(&acc.ClaimedProfit))
}

func TestBadRequestBodies(t *testing.T) {
	ts, asset := newTestServer(t)
	base := ts.URL + "/pools/" + asset.String()

	_, status := httpPost(t, base+"/deposits", map[string]any{"amount": "1"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = httpPost(t, base+"/deposits", map[string]any{"caller": user1.String()})
	assert.Equal(t, http.StatusBadRequest, status)

	// strict parsing rejects unknown fields
	_, status = httpPost(t, base+"/deposits", map[string]any{
		"caller": user1.String(), "amount": "1", "bogus": true,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = httpPost(t, base+"/transfers", map[string]any{
		"caller": user1.String(), "amount": "1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
