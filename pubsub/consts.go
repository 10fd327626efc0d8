// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/units"
)

const (
	readBufferSize     = units.KiB
	writeBufferSize    = units.KiB
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	maxReadMessageSize = 256 * units.KiB // bytes
	maxPendingMessages = 1_024
)

type ServerConfig struct {
	ReadBufferSize  int `json:"readBufferSize"  yaml:"readBufferSize"`
	WriteBufferSize int `json:"writeBufferSize" yaml:"writeBufferSize"`
	// MaxPendingMessages is the number of outbound messages a connection may
	// queue before new ones are dropped.
	MaxPendingMessages int           `json:"maxPendingMessages" yaml:"maxPendingMessages"`
	MaxReadMessageSize int64         `json:"maxReadMessageSize" yaml:"maxReadMessageSize"`
	WriteWait          time.Duration `json:"writeWait"          yaml:"writeWait"`
	PongWait           time.Duration `json:"pongWait"           yaml:"pongWait"`
	// PingPeriod must be less than [PongWait].
	PingPeriod time.Duration `json:"pingPeriod" yaml:"pingPeriod"`
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:     readBufferSize,
		WriteBufferSize:    writeBufferSize,
		MaxPendingMessages: maxPendingMessages,
		MaxReadMessageSize: maxReadMessageSize,
		WriteWait:          writeWait,
		PongWait:           pongWait,
		PingPeriod:         (pongWait * 9) / 10,
	}
}
