// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type chainMetrics struct {
	blocksProcessed prometheus.Counter
	txsSucceeded    prometheus.Counter
	txsFailed       prometheus.Counter

	stateChanges    prometheus.Counter
	stateOperations prometheus.Counter

	waitSignatures prometheus.Histogram
	executeBlock   prometheus.Histogram
}

func newMetrics(r prometheus.Registerer) (*chainMetrics, error) {
	m := &chainMetrics{
		blocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "blocks_processed",
			Help:      "number of blocks executed",
		}),
		txsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_succeeded",
			Help:      "number of txs whose action succeeded",
		}),
		txsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_failed",
			Help:      "number of txs whose action failed and was reverted",
		}),
		stateChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "state_changes",
			Help:      "number of state changes",
		}),
		stateOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "state_operations",
			Help:      "number of state operations",
		}),
		waitSignatures: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chain",
			Name:      "wait_signatures",
			Help:      "time spent verifying signatures in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		executeBlock: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chain",
			Name:      "execute_block",
			Help:      "time spent executing a block in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.blocksProcessed),
		r.Register(m.txsSucceeded),
		r.Register(m.txsFailed),
		r.Register(m.stateChanges),
		r.Register(m.stateOperations),
		r.Register(m.waitSignatures),
		r.Register(m.executeBlock),
	)
	return m, errs.Err
}
