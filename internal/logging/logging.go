// Package logging builds the zap logger shared by all commands.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// New returns a console logger at level writing to stderr. Stdout is left
// for command output and the stdio tool transport.
func New(level string) (*zap.Logger, error) {
	return NewWithSink(level, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWithSink returns a console logger writing to w, with colored levels
// when color is set.
func NewWithSink(level string, w zapcore.WriteSyncer, color bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeCaller = nil
	encCfg.CallerKey = ""
	if color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(w), lvl)
	return zap.New(core), nil
}
