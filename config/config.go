// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/stakevm/chain"
	"github.com/ava-labs/stakevm/codec"
	"github.com/ava-labs/stakevm/pebble"
	"github.com/ava-labs/stakevm/trace"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel        string `json:"logLevel"        yaml:"logLevel"`
	LogDisplayLevel string `json:"logDisplayLevel" yaml:"logDisplayLevel"`
	LogFormat       string `json:"logFormat"       yaml:"logFormat"`
	// LogDir enables a rotated JSON log file when set.
	LogDir      string `json:"logDir"      yaml:"logDir"`
	LogMaxSize  int    `json:"logMaxSize"  yaml:"logMaxSize"` // megabytes
	LogMaxFiles int    `json:"logMaxFiles" yaml:"logMaxFiles"`
	LogMaxAge   int    `json:"logMaxAge"   yaml:"logMaxAge"` // days

	// DatabaseDir is where pebble keeps its files. An empty directory keeps
	// all state in memory.
	DatabaseDir string        `json:"databaseDir" yaml:"databaseDir"`
	Pebble      pebble.Config `json:"pebble"      yaml:"pebble"`

	HTTPHost       string   `json:"httpHost"       yaml:"httpHost"`
	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`
	AllowedHosts   []string `json:"allowedHosts"   yaml:"allowedHosts"`
	MetricsEnabled bool     `json:"metricsEnabled" yaml:"metricsEnabled"`

	BuildInterval         time.Duration   `json:"buildInterval"         yaml:"buildInterval"`
	MaxBlockTxs           int             `json:"maxBlockTxs"           yaml:"maxBlockTxs"`
	MempoolSize           int             `json:"mempoolSize"           yaml:"mempoolSize"`
	MempoolSponsorSize    int             `json:"mempoolSponsorSize"    yaml:"mempoolSponsorSize"`
	MempoolExemptSponsors []codec.Address `json:"mempoolExemptSponsors" yaml:"mempoolExemptSponsors"`
	AuthVerificationCores int             `json:"authVerificationCores" yaml:"authVerificationCores"`
	StreamingBacklogSize  int             `json:"streamingBacklogSize"  yaml:"streamingBacklogSize"`

	Trace trace.Config `json:"trace" yaml:"trace"`
}

func NewConfig() Config {
	return Config{
		LogLevel:              logging.Info.String(),
		LogDisplayLevel:       logging.Info.String(),
		LogFormat:             "plain",
		LogMaxSize:            8,
		LogMaxFiles:           4,
		LogMaxAge:             7,
		Pebble:                pebble.NewDefaultConfig(),
		HTTPHost:              "127.0.0.1:9650",
		AllowedOrigins:        []string{"*"},
		AllowedHosts:          []string{"localhost"},
		MetricsEnabled:        true,
		BuildInterval:         time.Second,
		MaxBlockTxs:           chain.MaxBlockTxs,
		MempoolSize:           2_048,
		MempoolSponsorSize:    32,
		AuthVerificationCores: 1,
		StreamingBacklogSize:  1_024,
		Trace: trace.Config{
			TraceSampleRate: 0.1,
			AppName:         "stakevm",
			Agent:           "stakevm",
			Endpoint:        trace.DefaultEndpoint,
		},
	}
}

// Load overrides the defaults with [b]. YAML is used when [format] is "yaml"
// or "yml", JSON otherwise.
func Load(b []byte, format string) (Config, error) {
	c := NewConfig()
	if len(b) > 0 {
		var err error
		switch strings.ToLower(format) {
		case "yaml", "yml":
			err = yaml.UnmarshalStrict(b, &c)
		default:
			err = json.Unmarshal(b, &c)
		}
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return c, c.Verify()
}

// LoadFile reads the config at [path]. The format follows the file
// extension.
func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Load(b, strings.TrimPrefix(filepath.Ext(path), "."))
}

func (c Config) Verify() error {
	if _, err := c.GetLogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.GetLogDisplayLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.BuildInterval <= 0:
		return fmt.Errorf("%w: build interval must be positive", ErrInvalidConfig)
	case c.MaxBlockTxs <= 0 || c.MaxBlockTxs > chain.MaxBlockTxs:
		return fmt.Errorf("%w: max block txs must be in (0, %d]", ErrInvalidConfig, chain.MaxBlockTxs)
	case c.MempoolSize <= 0:
		return fmt.Errorf("%w: mempool size must be positive", ErrInvalidConfig)
	case c.MempoolSponsorSize <= 0:
		return fmt.Errorf("%w: mempool sponsor size must be positive", ErrInvalidConfig)
	case c.AuthVerificationCores <= 0:
		return fmt.Errorf("%w: auth verification cores must be positive", ErrInvalidConfig)
	case c.StreamingBacklogSize <= 0:
		return fmt.Errorf("%w: streaming backlog size must be positive", ErrInvalidConfig)
	case len(c.HTTPHost) == 0:
		return fmt.Errorf("%w: http host is empty", ErrInvalidConfig)
	default:
		return nil
	}
}

func (c Config) GetLogLevel() (logging.Level, error) {
	return logging.ToLevel(c.LogLevel)
}

func (c Config) GetLogDisplayLevel() (logging.Level, error) {
	return logging.ToLevel(c.LogDisplayLevel)
}

// GetLogFormat parses [LogFormat] for the process' stderr.
func (c Config) GetLogFormat() (logging.Format, error) {
	return logging.ToFormat(c.LogFormat, os.Stderr.Fd())
}
