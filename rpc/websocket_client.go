// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/gorilla/websocket"

	"github.com/ava-labs/stakevm/chain"
)

const pendingMessages = 1024

// TxStatus is the outcome of a transaction registered with [RegisterTx].
// Exactly one of Err and Result is set.
type TxStatus struct {
	TxID   ids.ID
	Err    error
	Result *chain.Result
}

type WebSocketClient struct {
	conn *websocket.Conn
	wl   sync.Mutex

	pendingBlocks chan []byte
	pendingTxs    chan []byte
	done          chan struct{}

	errl sync.Mutex
	err  error
	cl   sync.Once
}

// NewWebSocketClient dials the websocket server of the node at [uri].
func NewWebSocketClient(uri string) (*WebSocketClient, error) {
	uri = strings.TrimSuffix(uri, "/")
	uri = strings.Replace(uri, "http://", "ws://", 1)
	uri = strings.Replace(uri, "https://", "wss://", 1)
	uri += WebSocketEndpoint

	conn, resp, err := websocket.DefaultDialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	conn.SetReadLimit(maxMessageSize)

	c := &WebSocketClient{
		conn:          conn,
		pendingBlocks: make(chan []byte, pendingMessages),
		pendingTxs:    make(chan []byte, pendingMessages),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WebSocketClient) readLoop() {
	defer close(c.done)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.setErr(err)
			return
		}
		if len(msg) == 0 {
			continue
		}
		var pending chan []byte
		switch msg[0] {
		case BlockMode:
			pending = c.pendingBlocks
		case TxMode:
			pending = c.pendingTxs
		default:
			continue
		}
		select {
		case pending <- msg:
		default:
			// The caller is not keeping up.
		}
	}
}

func (c *WebSocketClient) setErr(err error) {
	c.errl.Lock()
	defer c.errl.Unlock()

	if c.err == nil {
		c.err = err
	}
}

// Err returns the error that stopped the client, if any.
func (c *WebSocketClient) Err() error {
	c.errl.Lock()
	defer c.errl.Unlock()

	return c.err
}

func (c *WebSocketClient) write(msg []byte) error {
	c.wl.Lock()
	defer c.wl.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// RegisterBlocks subscribes to accepted blocks.
func (c *WebSocketClient) RegisterBlocks() error {
	return c.write([]byte{BlockMode})
}

// RegisterTx submits [tx] and subscribes to its outcome.
func (c *WebSocketClient) RegisterTx(tx *chain.Transaction) error {
	return c.write(append([]byte{TxMode}, tx.Bytes()...))
}

func (c *WebSocketClient) next(ctx context.Context, pending chan []byte) ([]byte, error) {
	select {
	case msg := <-pending:
		return msg, nil
	case <-c.done:
		if err := c.Err(); err != nil {
			return nil, err
		}
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListenBlock returns the next accepted block.
func (c *WebSocketClient) ListenBlock(ctx context.Context, registry chain.Registry) (*chain.ExecutedBlock, error) {
	msg, err := c.next(ctx, c.pendingBlocks)
	if err != nil {
		return nil, err
	}
	return UnpackBlockMessage(msg, registry)
}

// ListenTx returns the next outcome of a registered transaction.
func (c *WebSocketClient) ListenTx(ctx context.Context) (*TxStatus, error) {
	msg, err := c.next(ctx, c.pendingTxs)
	if err != nil {
		return nil, err
	}
	txID, txErr, result, err := UnpackTxMessage(msg)
	if err != nil {
		return nil, err
	}
	return &TxStatus{TxID: txID, Err: txErr, Result: result}, nil
}

// Close closes the connection to the server.
func (c *WebSocketClient) Close() error {
	var err error
	c.cl.Do(func() {
		c.wl.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.wl.Unlock()
		err = c.conn.Close()
		<-c.done
	})
	return err
}
