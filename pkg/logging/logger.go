/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging provides module-scoped loggers for the SDK. Each package
// obtains its own named logger via NewLogger; the active level is shared
// and may be changed at runtime through SetLevel.
package logging

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	rootOnce sync.Once
	root     *zap.Logger
)

// Logger is the leveled, printf-style logger handed out to SDK modules.
type Logger = zap.SugaredLogger

func rootLogger() *zap.Logger {
	rootOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
		root = zap.New(core)
	})
	return root
}

// NewLogger creates and returns a Logger object based on the module name.
func NewLogger(module string) *Logger {
	return rootLogger().Named(module).Sugar()
}

// SetLevel sets the active log level for all SDK loggers from its string
// representation ("debug", "info", "warn", "error").
func SetLevel(levelName string) error {
	l, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return errors.Wrapf(err, "invalid logging level '%s'", levelName)
	}
	level.SetLevel(l)
	return nil
}

// GetLevel returns the active log level.
func GetLevel() string {
	return level.Level().String()
}
