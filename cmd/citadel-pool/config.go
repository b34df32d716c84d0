// Copyright (c) 2021 The Citadel developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Citadel-Finance/citadel-pool-go/access"
	"github.com/Citadel-Finance/citadel-pool-go/citadel"
	"github.com/Citadel-Finance/citadel-pool-go/factory"
	"github.com/Citadel-Finance/citadel-pool-go/kv"
	"github.com/Citadel-Finance/citadel-pool-go/pool/reverts"
	"github.com/Citadel-Finance/citadel-pool-go/storage"
	"github.com/Citadel-Finance/citadel-pool-go/token"
)

// Config declares the genesis state of the service: the tokens it
// ledgers, the pools over them, and the role holders.
type Config struct {
	Tokens    []TokenConfig `yaml:"tokens"`
	Pools     []PoolConfig  `yaml:"pools"`
	Admins    []string      `yaml:"admins"`
	Borrowers []string      `yaml:"borrowers"`
}

type TokenConfig struct {
	Name     string          `yaml:"name"`
	Symbol   string          `yaml:"symbol"`
	Decimals uint8           `yaml:"decimals"`
	Balances []BalanceConfig `yaml:"balances"`
}

type BalanceConfig struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

type PoolConfig struct {
	Asset        string `yaml:"asset"` // token symbol
	StartTime    uint64 `yaml:"startTime"`
	RewardRate   string `yaml:"rewardRate"`
	ApyTax       string `yaml:"apyTax"`
	PremiumCoeff string `yaml:"premiumCoeff"`
	Enabled      bool   `yaml:"enabled"`
}

// RewardSymbol is the symbol the reward token is registered under.
const RewardSymbol = "CTL"

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "read config")
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.WithMessage(err, "parse config")
	}
	return &config, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("bad amount %q", s)
	}
	return v, nil
}

// bootstrap applies the config to the store. Safe to run on every
// start: tokens already initialized keep their state, registered pools
// stay as they are, role grants are idempotent.
func bootstrap(config *Config, f *factory.Factory, store kv.Store, now uint64) error {
	for _, tc := range config.Tokens {
		context := storage.NewContext(store)
		tok := token.New(citadel.TokenAddress(tc.Symbol), context)
		if _, err := tok.Meta(); err == nil {
			continue // already initialized, balances stand
		}
		if err := tok.Init(token.Metadata{Name: tc.Name, Symbol: tc.Symbol, Decimals: tc.Decimals}); err != nil {
			return errors.WithMessagef(err, "token %s", tc.Symbol)
		}
		for _, b := range tc.Balances {
			addr, err := citadel.ParseAddress(b.Address)
			if err != nil {
				return errors.WithMessagef(err, "token %s balance", tc.Symbol)
			}
			amount, err := parseAmount(b.Amount)
			if err != nil {
				return errors.WithMessagef(err, "token %s balance", tc.Symbol)
			}
			if err := tok.Mint(*addr, amount); err != nil {
				return errors.WithMessagef(err, "token %s balance", tc.Symbol)
			}
		}
		if err := context.Commit(); err != nil {
			return err
		}
		logger.Info("token initialized", "symbol", tc.Symbol, "address", tok.Address())
	}

	var admins []citadel.Address
	for _, a := range config.Admins {
		addr, err := citadel.ParseAddress(a)
		if err != nil {
			return errors.WithMessage(err, "admins")
		}
		admins = append(admins, *addr)
	}
	if len(admins) == 0 {
		return errors.New("config: at least one admin required")
	}
	if err := f.Init(admins...); err != nil {
		return err
	}
	for _, b := range config.Borrowers {
		addr, err := citadel.ParseAddress(b)
		if err != nil {
			return errors.WithMessage(err, "borrowers")
		}
		if err := f.GrantRole(admins[0], access.BorrowerRole, *addr); err != nil {
			return err
		}
	}

	for _, pc := range config.Pools {
		asset := citadel.TokenAddress(pc.Asset)
		rewardRate, err := parseAmount(pc.RewardRate)
		if err != nil {
			return errors.WithMessagef(err, "pool %s", pc.Asset)
		}
		apyTax, err := parseAmount(pc.ApyTax)
		if err != nil {
			return errors.WithMessagef(err, "pool %s", pc.Asset)
		}
		premiumCoeff, err := parseAmount(pc.PremiumCoeff)
		if err != nil {
			return errors.WithMessagef(err, "pool %s", pc.Asset)
		}
		startTime := pc.StartTime
		if startTime == 0 {
			startTime = now
		}
		poolAddr, err := f.AddPool(admins[0], asset, factory.PoolTerms{
			StartTime:    startTime,
			RewardRate:   rewardRate,
			ApyTax:       apyTax,
			PremiumCoeff: premiumCoeff,
		}, pc.Enabled)
		if reverts.Is(err, reverts.DuplicatePool) {
			continue // registered on an earlier start
		}
		if err != nil {
			return errors.WithMessagef(err, "pool %s", pc.Asset)
		}
		logger.Info("pool registered", "asset", pc.Asset, "pool", poolAddr, "enabled", pc.Enabled)
	}
	return nil
}
