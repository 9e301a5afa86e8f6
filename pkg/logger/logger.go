package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerConfigurator struct {
	level  string
	format string
	output io.Writer
}

type Option func(*loggerConfigurator)

func SetLevel(level string) Option {
	return func(c *loggerConfigurator) {
		c.level = level
	}
}

// SetFormat selects "console" (human readable) or "json".
func SetFormat(format string) Option {
	return func(c *loggerConfigurator) {
		c.format = format
	}
}

func SetOutput(w io.Writer) Option {
	return func(c *loggerConfigurator) {
		c.output = w
	}
}

func New(options ...Option) (*zap.Logger, error) {
	cfg := loggerConfigurator{
		level:  "info",
		format: "console",
		output: os.Stdout,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	level, err := zap.ParseAtomicLevel(cfg.level)
	if err != nil {
		return nil, fmt.Errorf("failed parse level: %w", err)
	}

	var encoder zapcore.Encoder
	switch cfg.format {
	case "json":
		productionCfg := zap.NewProductionEncoderConfig()
		productionCfg.TimeKey = "timestamp"
		productionCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(productionCfg)
	case "console":
		developmentCfg := zap.NewDevelopmentEncoderConfig()
		developmentCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(developmentCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.output), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
