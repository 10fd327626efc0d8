// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Callback is invoked with every message a connection receives, from the
// connection's read goroutine.
type Callback func([]byte, *Connection)

// Connection is a single websocket client of a [Server].
type Connection struct {
	s    *Server
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send      chan []byte
	sendLock  sync.RWMutex
	active    atomic.Bool
	closeOnce sync.Once
}

func (c *Connection) isActive() bool {
	return c.active.Load()
}

// deactivate stops new messages from being queued and lets the write pump
// drain what is already queued.
func (c *Connection) deactivate() {
	c.closeOnce.Do(func() {
		c.sendLock.Lock()
		defer c.sendLock.Unlock()

		c.active.Store(false)
		close(c.send)
	})
}

// Send queues [msg] for delivery and returns whether it was queued. Messages
// are dropped when the connection is inactive or its queue is full.
func (c *Connection) Send(msg []byte) bool {
	c.sendLock.RLock()
	defer c.sendLock.RUnlock()

	if !c.isActive() {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.s.log.Debug("dropping message to connection with too many pending messages")
		return false
	}
}

// readPump is the only reader of [c.conn].
func (c *Connection) readPump() {
	defer func() {
		c.s.removeConnection(c)
		c.deactivate()
		// close is called by both the writePump and the readPump so one of them
		// will always error
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.s.config.MaxReadMessageSize)
	// SetReadDeadline returns an error if the connection is corrupted
	if err := c.conn.SetReadDeadline(time.Now().Add(c.s.config.PongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.s.config.PongWait))
	})

	for {
		_, reader, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.s.log.Debug("unexpected close in websockets",
					zap.Error(err),
				)
			}
			return
		}
		if c.s.callback == nil {
			continue
		}
		msg, err := io.ReadAll(reader)
		if err != nil {
			c.s.log.Debug("unexpected error reading bytes from websockets",
				zap.Error(err),
			)
			return
		}
		c.s.callback(msg, c)
	}
}

// writePump is the only writer of [c.conn].
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.s.config.PingPeriod)
	defer func() {
		c.s.removeConnection(c)
		c.deactivate()
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.s.config.WriteWait)); err != nil {
				c.s.log.Debug("closing the connection",
					zap.String("reason", "failed to set the write deadline"),
					zap.Error(err),
				)
				return
			}
			if !ok {
				// The server closed the channel. Attempt to close the connection
				// gracefully.
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				c.s.log.Debug("closing the connection",
					zap.String("reason", "failed to write message"),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.s.config.WriteWait)); err != nil {
				c.s.log.Debug("closing the connection",
					zap.String("reason", "failed to set the write deadline"),
					zap.Error(err),
				)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
