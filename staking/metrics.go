// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package staking

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	deposits    prometheus.Counter
	harvests    prometheus.Counter
	withdrawals prometheus.Counter
	rewardPaid  prometheus.Counter
	failures    prometheus.Counter
	staked      prometheus.Gauge
}

func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staking",
			Name:      "deposits",
			Help:      "number of assets deposited",
		}),
		harvests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staking",
			Name:      "harvests",
			Help:      "number of successful harvests",
		}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staking",
			Name:      "withdrawals",
			Help:      "number of assets withdrawn",
		}),
		rewardPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staking",
			Name:      "reward_paid",
			Help:      "reward units paid by harvests and withdrawals",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staking",
			Name:      "failures",
			Help:      "number of ledger calls that were reverted",
		}),
		staked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "staking",
			Name:      "staked",
			Help:      "change in staked assets since startup",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.deposits),
		r.Register(m.harvests),
		r.Register(m.withdrawals),
		r.Register(m.rewardPaid),
		r.Register(m.failures),
		r.Register(m.staked),
	)
	return m, errs.Err
}
