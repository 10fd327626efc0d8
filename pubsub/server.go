// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var _ http.Handler = (*Server)(nil)

// Server upgrades HTTP requests to websocket connections and publishes
// messages to them.
type Server struct {
	log      logging.Logger
	config   ServerConfig
	upgrader websocket.Upgrader

	// conns is the set of all active connections
	conns *Connections
	// callback is called with every message received, if not nil
	callback Callback
}

func New(log logging.Logger, config ServerConfig, callback Callback) *Server {
	return &Server{
		log:    log,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		conns:    NewConnections(),
		callback: callback,
	}
}

// ServeHTTP adds a connection to the server and starts its read and write
// goroutines.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade",
			zap.Error(err),
		)
		return
	}
	conn := &Connection{
		s:    s,
		conn: wsConn,
		send: make(chan []byte, s.config.MaxPendingMessages),
	}
	conn.active.Store(true)
	s.conns.Add(conn)

	go conn.writePump()
	go conn.readPump()
}

// Publish sends [msg] to every connection in [toConns] and returns the
// connections that are no longer active.
func (s *Server) Publish(msg []byte, toConns *Connections) []*Connection {
	inactive := []*Connection{}
	for _, conn := range toConns.Conns() {
		if !s.conns.Has(conn) {
			inactive = append(inactive, conn)
			continue
		}
		if !conn.Send(msg) {
			s.log.Verbo("dropping message to subscribed connection")
		}
	}
	return inactive
}

// Connections returns the set of all active connections.
func (s *Server) Connections() *Connections {
	return s.conns
}

// Close disconnects every client.
func (s *Server) Close() {
	for _, conn := range s.conns.Conns() {
		s.removeConnection(conn)
		conn.deactivate()
	}
}

func (s *Server) removeConnection(conn *Connection) {
	s.conns.Remove(conn)
}
