// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/api/utils"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
)

// Clock reports the current unix time for stake-moving operations.
type Clock func() uint64

// Pools exposes the pool registry over http.
type Pools struct {
	factory *factory.Factory
	now     Clock
}

// New creates the pools endpoint group. A nil clock means wall time.
func New(f *factory.Factory, now Clock) *Pools {
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Pools{factory: f, now: now}
}

func (p *Pools) handleGetPools(w http.ResponseWriter, _ *http.Request) error {
	assets, err := p.factory.All()
	if err != nil {
		return err
	}
	list := make([]*Pool, 0, len(assets))
	for _, asset := range assets {
		pl, err := p.factory.Get(asset)
		if err != nil {
			return err
		}
		c, err := pl.CommonData()
		if err != nil {
			return err
		}
		list = append(list, convertPool(asset, c))
	}
	return utils.WriteJSON(w, list)
}

func (p *Pools) asset(r *http.Request) (citadel.Address, error) {
	addr, err := citadel.ParseAddress(mux.Vars(r)["asset"])
	if err != nil {
		return citadel.Address{}, utils.BadRequest(errors.WithMessage(err, "asset"))
	}
	return *addr, nil
}

func (p *Pools) handleGetPool(w http.ResponseWriter, r *http.Request) error {
	asset, err := p.asset(r)
	if err != nil {
		return err
	}
	pl, err := p.factory.Get(asset)
	if err != nil {
		return utils.RevertError(err)
	}
	c, err := pl.CommonData()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPool(asset, c))
}

func (p *Pools) handleGetAccount(w http.ResponseWriter, r *http.Request) error {
	asset, err := p.asset(r)
	if err != nil {
		return err
	}
	addr, err := citadel.ParseAddress(mux.Vars(r)["addr"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "addr"))
	}
	pl, err := p.factory.Get(asset)
	if err != nil {
		return utils.RevertError(err)
	}
	u, err := pl.UserData(*addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertAccount(u))
}

// operation parses the request body shared by all stake-moving posts.
func (p *Pools) operation(r *http.Request, needTo bool) (citadel.Address, *Operation, *big.Int, error) {
	asset, err := p.asset(r)
	if err != nil {
		return citadel.Address{}, nil, nil, err
	}
	var op Operation
	if err := utils.ParseJSON(r.Body, &op); err != nil {
		return citadel.Address{}, nil, nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if op.Caller.IsZero() {
		return citadel.Address{}, nil, nil, utils.BadRequest(errors.New("caller: missing"))
	}
	if needTo && op.To == nil {
		return citadel.Address{}, nil, nil, utils.BadRequest(errors.New("to: missing"))
	}
	if op.Amount == nil {
		return citadel.Address{}, nil, nil, utils.BadRequest(errors.New("amount: missing"))
	}
	return asset, &op, (*big.Int)(op.Amount), nil
}

func (p *Pools) handleDeposit(w http.ResponseWriter, r *http.Request) error {
	asset, op, amount, err := p.operation(r, false)
	if err != nil {
		return err
	}
	if err := p.factory.Deposit(op.Caller, asset, amount, p.now()); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (p *Pools) handleWithdraw(w http.ResponseWriter, r *http.Request) error {
	asset, op, amount, err := p.operation(r, false)
	if err != nil {
		return err
	}
	if err := p.factory.Withdraw(op.Caller, asset, amount, p.now()); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (p *Pools) handleTransfer(w http.ResponseWriter, r *http.Request) error {
	asset, op, amount, err := p.operation(r, true)
	if err != nil {
		return err
	}
	if err := p.factory.TransferStake(op.Caller, *op.To, asset, amount, p.now()); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (p *Pools) handleClaim(w http.ResponseWriter, r *http.Request) error {
	asset, op, amount, err := p.operation(r, false)
	if err != nil {
		return err
	}
	if err := p.factory.ClaimReward(op.Caller, asset, amount, p.now()); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (p *Pools) handleClaimCtl(w http.ResponseWriter, r *http.Request) error {
	asset, op, amount, err := p.operation(r, false)
	if err != nil {
		return err
	}
	if err := p.factory.ClaimCtl(op.Caller, asset, amount, p.now()); err != nil {
		return utils.RevertError(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

// Mount attaches the endpoint group under pathPrefix.
func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetPools))
	sub.Path("/{asset}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{asset}/accounts/{addr}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetAccount))
	sub.Path("/{asset}/deposits").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(p.handleDeposit))
	sub.Path("/{asset}/withdrawals").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(p.handleWithdraw))
	sub.Path("/{asset}/transfers").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(p.handleTransfer))
	sub.Path("/{asset}/claims").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(p.handleClaim))
	sub.Path("/{asset}/ctl-claims").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(p.handleClaimCtl))
}
