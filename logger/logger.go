// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"io"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the format and verbosity of the process logger.
type Config struct {
	// Format is one of auto, logfmt, json or console. Auto picks logfmt.
	Format string
	Level  zapcore.Level
}

// NewConfig returns a Config with defaults.
func NewConfig() Config {
	return Config{Format: "auto"}
}

// New returns a logfmt debug logger writing to w. Intended for tests and
// tools that do not carry a Config.
func New(w io.Writer) *zap.Logger {
	log, _ := Config{Format: "logfmt", Level: zapcore.DebugLevel}.New(w)
	return log
}

// New creates a logger per the config, writing to w.
func (c Config) New(w io.Writer) (*zap.Logger, error) {
	format := c.Format
	if format == "" || format == "auto" {
		format = "logfmt"
	}

	encoderConfig := newEncoderConfig()
	var encoder zapcore.Encoder
	switch format {
	case "logfmt":
		encoder = zaplogfmt.NewEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format: %s", c.Format)
	}

	return zap.New(zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		c.Level,
	)), nil
}

func newEncoderConfig() zapcore.EncoderConfig {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}
	return config
}
