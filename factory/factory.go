// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package factory creates and registers pools and fronts every
// stake-moving operation on them. Each operation runs against a fresh
// storage overlay that commits atomically on success, so a failed
// operation leaves no trace, token movements included.
package factory

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/Citadel-Finance/citadel-pool-go/access"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/log"
	"github.com/Citadel-Finance/citadel-pool-go/metrics"
	"github.com/Citadel-Finance/citadel-pool-go/pool"
	"github.com/Citadel-Finance/citadel-pool-go/pool/flashloan"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

var (
	logger = log.WithContext("pkg", "factory")

	metricOpCount = metrics.LazyLoadCounterVec("factory_operation_count", []string{"op", "asset"})
)

var (
	slotIndex = []byte("factory.index")
	slotPools = []byte("factory.pools")
)

// PoolTerms are the creation parameters of one pool. Asset metadata
// (decimals, receipt naming) is read from the asset token itself.
type PoolTerms struct {
	StartTime    uint64
	RewardRate   *big.Int
	ApyTax       *big.Int
	PremiumCoeff *big.Int
}

// Factory is the registry of pools over one key-value store. All
// mutating operations go through it; it holds the reentrancy locks and
// owns the per-operation overlay lifecycle.
type Factory struct {
	addr  citadel.Address
	store kv.Store
	ctl   citadel.Address

	wmu   sync.Mutex // single writer across pools
	locks sync.Map   // asset -> *sync.Mutex
}

// New binds a factory to its store. addr namespaces the registry and
// role storage; ctl is the reward token account.
func New(addr citadel.Address, store kv.Store, ctl citadel.Address) *Factory {
	return &Factory{addr: addr, store: store, ctl: ctl}
}

// Address returns the factory's storage namespace address.
func (f *Factory) Address() citadel.Address {
	return f.addr
}

// Init grants AdminRole to the bootstrap admins. Meant to be called
// once at genesis, before the factory serves callers.
func (f *Factory) Init(admins ...citadel.Address) error {
	context := storage.NewContext(f.store)
	roles := access.New(f.addr, context)
	for _, admin := range admins {
		if err := roles.Grant(access.AdminRole, admin); err != nil {
			return err
		}
	}
	return context.Commit()
}

func (f *Factory) index(context *storage.Context) *storage.Value[[]citadel.Address] {
	return storage.NewValue[[]citadel.Address](context, f.addr, slotIndex)
}

func (f *Factory) registry(context *storage.Context) *storage.Mapping[citadel.Address, bool] {
	return storage.NewMapping[citadel.Address, bool](context, f.addr, slotPools)
}

// poolFor binds the registered pool of asset to context.
func (f *Factory) poolFor(context *storage.Context, asset citadel.Address) (*pool.Pool, error) {
	known, err := f.registry(context).Get(asset)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, reverts.New(reverts.UnknownPool, "CitadelFactory: Pool does not exist")
	}
	assetToken := token.New(asset, context)
	ctlToken := token.New(f.ctl, context)
	roles := access.New(f.addr, context)
	return pool.New(citadel.PoolAddress(asset), context, assetToken, ctlToken, roles), nil
}

func (f *Factory) requireAdmin(context *storage.Context, caller citadel.Address) error {
	ok, err := access.New(f.addr, context).Has(access.AdminRole, caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.New(reverts.NotAdmin, "CitadelFactory: Caller is not a admin")
	}
	return nil
}

// AddPool registers a pool for the asset token and returns the new
// pool's account address. Admin only; one pool per asset.
func (f *Factory) AddPool(caller, asset citadel.Address, terms PoolTerms, enabled bool) (citadel.Address, error) {
	f.wmu.Lock()
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	defer context.Discard()

	if err := f.requireAdmin(context, caller); err != nil {
		return citadel.Address{}, err
	}
	known, err := f.registry(context).Get(asset)
	if err != nil {
		return citadel.Address{}, err
	}
	if known {
		return citadel.Address{}, reverts.New(reverts.DuplicatePool, "CitadelFactory: Pool already exists")
	}

	assetToken := token.New(asset, context)
	meta, err := assetToken.Meta()
	if err != nil {
		return citadel.Address{}, errors.WithMessage(err, "resolve asset metadata")
	}

	poolAddr := citadel.PoolAddress(asset)
	p := pool.New(poolAddr, context, assetToken, token.New(f.ctl, context), access.New(f.addr, context))
	if err := p.Init(pool.Terms{
		Asset:        asset,
		Decimals:     meta.Decimals,
		StartTime:    terms.StartTime,
		ApyTax:       terms.ApyTax,
		PremiumCoeff: terms.PremiumCoeff,
		RewardRate:   terms.RewardRate,
	}, enabled, meta.Name, meta.Symbol); err != nil {
		return citadel.Address{}, err
	}

	if err := f.registry(context).Set(asset, true); err != nil {
		return citadel.Address{}, err
	}
	assets, _, err := f.index(context).Get()
	if err != nil {
		return citadel.Address{}, err
	}
	if err := f.index(context).Set(append(assets, asset)); err != nil {
		return citadel.Address{}, err
	}
	if err := context.Commit(); err != nil {
		return citadel.Address{}, err
	}
	logger.Info("pool added", "asset", asset, "pool", poolAddr, "enabled", enabled)
	return poolAddr, nil
}

// SetPoolEnabled flips a pool's enabled state. Admin only.
func (f *Factory) SetPoolEnabled(caller, asset citadel.Address, enabled bool) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	defer context.Discard()

	if err := f.requireAdmin(context, caller); err != nil {
		return err
	}
	p, err := f.poolFor(context, asset)
	if err != nil {
		return err
	}
	p.SetEnabled(enabled)
	if err := context.Commit(); err != nil {
		return err
	}
	logger.Info("pool enabled state changed", "asset", asset, "enabled", enabled)
	return nil
}

// GrantRole grants role to addr. Admin only.
func (f *Factory) GrantRole(caller citadel.Address, role access.Role, addr citadel.Address) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	defer context.Discard()

	if err := f.requireAdmin(context, caller); err != nil {
		return err
	}
	if err := access.New(f.addr, context).Grant(role, addr); err != nil {
		return err
	}
	return context.Commit()
}

// RevokeRole removes role from addr. Admin only.
func (f *Factory) RevokeRole(caller citadel.Address, role access.Role, addr citadel.Address) error {
	f.wmu.Lock()
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	defer context.Discard()

	if err := f.requireAdmin(context, caller); err != nil {
		return err
	}
	if err := access.New(f.addr, context).Revoke(role, addr); err != nil {
		return err
	}
	return context.Commit()
}

// HasRole reports whether addr holds role.
func (f *Factory) HasRole(role access.Role, addr citadel.Address) (bool, error) {
	return access.New(f.addr, storage.NewContext(f.store)).Has(role, addr)
}

// All returns the registered asset addresses in creation order.
func (f *Factory) All() ([]citadel.Address, error) {
	assets, _, err := f.index(storage.NewContext(f.store)).Get()
	return assets, err
}

// Get returns the pool of asset bound to a read-only overlay. Use it
// for views; mutations go through the factory's operation methods.
func (f *Factory) Get(asset citadel.Address) (*pool.Pool, error) {
	return f.poolFor(storage.NewContext(f.store), asset)
}

func (f *Factory) poolLock(asset citadel.Address) *sync.Mutex {
	mu, _ := f.locks.LoadOrStore(asset, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// withPool runs a mutating operation against the pool of asset on a
// fresh overlay, committing on success. Lock acquisition never blocks:
// an operation arriving while the pool (or any other write) is in
// flight reverts with ReentrantCall, which is what a flash-loan
// callback re-entering the ledger hits.
func (f *Factory) withPool(op string, asset citadel.Address, fn func(p *pool.Pool) error) error {
	mu := f.poolLock(asset)
	if !mu.TryLock() {
		return reverts.New(reverts.ReentrantCall, "Pool: Reentrant call")
	}
	defer mu.Unlock()
	if !f.wmu.TryLock() {
		return reverts.New(reverts.ReentrantCall, "Pool: Reentrant call")
	}
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	p, err := f.poolFor(context, asset)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		context.Discard()
		return err
	}
	if err := context.Commit(); err != nil {
		return err
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "asset": asset.String()})
	return nil
}

// Deposit stakes amount of the pool's asset for caller.
func (f *Factory) Deposit(caller, asset citadel.Address, amount *big.Int, now uint64) error {
	return f.withPool("deposit", asset, func(p *pool.Pool) error {
		return p.Deposit(caller, amount, now)
	})
}

// Withdraw unstakes amount for caller.
func (f *Factory) Withdraw(caller, asset citadel.Address, amount *big.Int, now uint64) error {
	return f.withPool("withdraw", asset, func(p *pool.Pool) error {
		return p.Withdraw(caller, amount, now)
	})
}

// TransferStake moves staked balance between accounts inside one pool.
func (f *Factory) TransferStake(from, to, asset citadel.Address, amount *big.Int, now uint64) error {
	return f.withPool("transfer", asset, func(p *pool.Pool) error {
		return p.Transfer(from, to, amount, now)
	})
}

// ClaimReward pays out accrued profit to caller.
func (f *Factory) ClaimReward(caller, asset citadel.Address, amount *big.Int, now uint64) error {
	return f.withPool("claim_reward", asset, func(p *pool.Pool) error {
		return p.ClaimReward(caller, amount, now)
	})
}

// ClaimCtl pays out accrued reward tokens to caller.
func (f *Factory) ClaimCtl(caller, asset citadel.Address, amount *big.Int, now uint64) error {
	return f.withPool("claim_ctl", asset, func(p *pool.Pool) error {
		return p.ClaimCtl(caller, amount, now)
	})
}

// FlashLoan lends amount to receiver for the duration of its callback.
func (f *Factory) FlashLoan(caller, asset citadel.Address, receiver flashloan.Receiver, amount, fee *big.Int, data []byte, now uint64) error {
	return f.withPool("flash_loan", asset, func(p *pool.Pool) error {
		return p.FlashLoan(caller, receiver, amount, fee, data, now)
	})
}

// ClaimAllRewards claims caller's full available profit from every
// registered pool that has any, in one atomic sweep.
func (f *Factory) ClaimAllRewards(caller citadel.Address, now uint64) error {
	if !f.wmu.TryLock() {
		return reverts.New(reverts.ReentrantCall, "Pool: Reentrant call")
	}
	defer f.wmu.Unlock()

	context := storage.NewContext(f.store)
	defer context.Discard()

	assets, _, err := f.index(context).Get()
	if err != nil {
		return err
	}
	for _, asset := range assets {
		p, err := f.poolFor(context, asset)
		if err != nil {
			return err
		}
		avail, err := p.AvailableReward(caller)
		if err != nil {
			return err
		}
		if avail.Sign() == 0 {
			continue
		}
		if err := p.ClaimReward(caller, avail, now); err != nil {
			return err
		}
	}
	if err := context.Commit(); err != nil {
		return err
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": "claim_all", "asset": "all"})
	return nil
}
