// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"go.uber.org/zap"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/pubsub"
)

type txListener struct {
	conns  *pubsub.Connections
	expiry int64
}

// WebSocketServer streams accepted blocks to block listeners and the outcome
// of submitted transactions to the connections that submitted them.
type WebSocketServer struct {
	vm VM
	s  *pubsub.Server

	blockListeners *pubsub.Connections

	txL         sync.Mutex
	txListeners map[ids.ID]*txListener
}

func NewWebSocketServer(vm VM, cfg pubsub.ServerConfig) (*WebSocketServer, *pubsub.Server) {
	w := &WebSocketServer{
		vm:             vm,
		blockListeners: pubsub.NewConnections(),
		txListeners:    map[ids.ID]*txListener{},
	}
	w.s = pubsub.New(vm.Logger(), cfg, w.MessageCallback())
	return w, w.s
}

// Run forwards accepted blocks to listeners until the block subscription is
// closed or [ctx] is done.
func (w *WebSocketServer) Run(ctx context.Context) error {
	blocks, cancel := w.vm.SubscribeBlocks()
	defer cancel()

	for {
		select {
		case blk, ok := <-blocks:
			if !ok {
				return ErrClosed
			}
			if err := w.AcceptBlock(blk); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// AddTxListener registers [c] for the outcome of [tx] and returns whether
// [tx] had no listeners before. Listeners that see no outcome are removed once
// a block past the tx expiry is accepted.
func (w *WebSocketServer) AddTxListener(tx *chain.Transaction, c *pubsub.Connection) bool {
	w.txL.Lock()
	defer w.txL.Unlock()

	txID := tx.ID()
	l, ok := w.txListeners[txID]
	if !ok {
		l = &txListener{
			conns:  pubsub.NewConnections(),
			expiry: tx.Expiry(),
		}
		w.txListeners[txID] = l
	}
	l.conns.Add(c)
	return !ok
}

// RemoveTx notifies the listeners of [txID] that it will never be accepted.
func (w *WebSocketServer) RemoveTx(txID ids.ID, reason error) error {
	w.txL.Lock()
	defer w.txL.Unlock()

	return w.removeTx(txID, reason)
}

func (w *WebSocketServer) removeTx(txID ids.ID, reason error) error {
	l, ok := w.txListeners[txID]
	if !ok {
		return nil
	}
	msg, err := PackRemovedTxMessage(txID, reason)
	if err != nil {
		return err
	}
	w.s.Publish(msg, l.conns)
	delete(w.txListeners, txID)
	return nil
}

func (w *WebSocketServer) removeTxListener(txID ids.ID, c *pubsub.Connection, reason error) {
	w.txL.Lock()
	if l, ok := w.txListeners[txID]; ok {
		l.conns.Remove(c)
	}
	w.txL.Unlock()

	if msg, err := PackRemovedTxMessage(txID, reason); err == nil {
		c.Send(msg)
	}
}

func (w *WebSocketServer) AcceptBlock(b *chain.ExecutedBlock) error {
	if w.blockListeners.Len() > 0 {
		msg, err := PackBlockMessage(b)
		if err != nil {
			return err
		}
		inactive := w.s.Publish(msg, w.blockListeners)
		w.blockListeners.Remove(inactive...)
	}

	w.txL.Lock()
	defer w.txL.Unlock()

	for i, tx := range b.Block.Txs {
		txID := tx.ID()
		l, ok := w.txListeners[txID]
		if !ok {
			continue
		}
		msg, err := PackAcceptedTxMessage(txID, b.Results[i])
		if err != nil {
			return err
		}
		w.s.Publish(msg, l.conns)
		delete(w.txListeners, txID)
	}

	var expired int
	for txID, l := range w.txListeners {
		if l.expiry >= b.Block.Timestamp {
			continue
		}
		if err := w.removeTx(txID, ErrExpired); err != nil {
			return err
		}
		expired++
	}
	if expired > 0 {
		w.vm.Logger().Debug("expired listeners", zap.Int("count", expired))
	}
	return nil
}

func (w *WebSocketServer) MessageCallback() pubsub.Callback {
	log := w.vm.Logger()

	return func(msgBytes []byte, c *pubsub.Connection) {
		if len(msgBytes) == 0 {
			log.Debug("received empty websocket message")
			return
		}

		switch msgBytes[0] {
		case BlockMode:
			w.blockListeners.Add(c)
			log.Debug("added block listener")
		case TxMode:
			tx, err := chain.ParseTx(msgBytes[1:], w.vm.Registry())
			if err != nil {
				log.Debug("failed to parse tx",
					zap.Int("len", len(msgBytes)),
					zap.Error(err),
				)
				return
			}
			first := w.AddTxListener(tx, c)

			txID := tx.ID()
			err = w.vm.Submit(context.TODO(), []*chain.Transaction{tx})[0]
			if err == nil {
				return
			}
			log.Debug("failed to submit tx",
				zap.Stringer("txID", txID),
				zap.Error(err),
			)
			if !first {
				// Another connection already submitted [tx]. Only this
				// connection learns about the rejection.
				w.removeTxListener(txID, c, err)
				return
			}
			if err := w.RemoveTx(txID, err); err != nil {
				log.Warn("failed to notify tx listeners",
					zap.Stringer("txID", txID),
					zap.Error(err),
				)
			}
		default:
			log.Debug("unexpected message type",
				zap.Int("len", len(msgBytes)),
				zap.Uint8("mode", msgBytes[0]),
			)
		}
	}
}
