// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ava-labs/stakevm/config"
)

const loggerName = "stakevm"

// NewLogger writes to stderr at [config.Config.LogDisplayLevel] and, when
// [config.Config.LogDir] is set, to a rotated JSON file at
// [config.Config.LogLevel].
func NewLogger(cfg config.Config) (logging.Logger, error) {
	displayLevel, err := cfg.GetLogDisplayLevel()
	if err != nil {
		return nil, err
	}
	format, err := cfg.GetLogFormat()
	if err != nil {
		return nil, err
	}
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(displayLevel, os.Stderr, format.ConsoleEncoder()),
	}

	if len(cfg.LogDir) > 0 {
		logLevel, err := cfg.GetLogLevel()
		if err != nil {
			return nil, err
		}
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, loggerName+".log"),
			MaxSize:    cfg.LogMaxSize,  // megabytes
			MaxAge:     cfg.LogMaxAge,   // days
			MaxBackups: cfg.LogMaxFiles, // files
			Compress:   true,
		}
		cores = append(cores, logging.NewWrappedCore(logLevel, rw, logging.JSON.FileEncoder()))
	}
	return logging.NewLogger(format.WrapPrefix(loggerName), cores...), nil
}
