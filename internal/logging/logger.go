// Package logging builds the zap logger shared by every command.
package logging

import (
	"os"
	"strings"

	"github.com/recipebox/webapp/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger from cfg. Unknown levels fall back to info and any
// format other than "console" produces JSON.
func New(cfg config.LogConfig, development bool) *zap.Logger {
	return newWithSyncer(cfg, development, zapcore.Lock(os.Stdout))
}

func newWithSyncer(cfg config.LogConfig, development bool, out zapcore.WriteSyncer) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	options := []zap.Option{zap.AddCaller()}
	if development {
		options = append(options, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(zapcore.NewCore(encoder, out, level), options...)
}
