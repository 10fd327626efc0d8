// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	txsSubmitted    prometheus.Counter
	txsAccepted     prometheus.Counter
	txsExpired      prometheus.Counter
	txsDropped      prometheus.Counter
	blocksAccepted  prometheus.Counter
	buildCapped     prometheus.Counter
	droppedFeeds    prometheus.Counter
	mempoolSize     prometheus.Gauge
	lastAcceptedHgt prometheus.Gauge

	blockBuild  prometheus.Histogram
	blockAccept prometheus.Histogram
}

func newMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		txsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "txs_submitted",
			Help:      "number of txs submitted to vm",
		}),
		txsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "txs_accepted",
			Help:      "number of txs accepted by vm",
		}),
		txsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "txs_expired",
			Help:      "number of txs removed from the mempool after expiry",
		}),
		txsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "txs_dropped",
			Help:      "number of txs dropped while building a block",
		}),
		blocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "blocks_accepted",
			Help:      "number of blocks accepted by vm",
		}),
		buildCapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "build_capped",
			Help:      "number of blocks that were built with the max number of txs",
		}),
		droppedFeeds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "dropped_feeds",
			Help:      "number of block subscribers removed for falling behind",
		}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vm",
			Name:      "mempool_size",
			Help:      "number of transactions in the mempool",
		}),
		lastAcceptedHgt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vm",
			Name:      "last_accepted_height",
			Help:      "height of the last accepted block",
		}),
		blockBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vm",
			Name:      "block_build",
			Help:      "time spent building blocks in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		blockAccept: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vm",
			Name:      "block_accept",
			Help:      "time spent accepting blocks in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.txsSubmitted),
		r.Register(m.txsAccepted),
		r.Register(m.txsExpired),
		r.Register(m.txsDropped),
		r.Register(m.blocksAccepted),
		r.Register(m.buildCapped),
		r.Register(m.droppedFeeds),
		r.Register(m.mempoolSize),
		r.Register(m.lastAcceptedHgt),
		r.Register(m.blockBuild),
		r.Register(m.blockAccept),
	)
	return m, errs.Err
}
