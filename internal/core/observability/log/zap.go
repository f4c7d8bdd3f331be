package log

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

var (
	defaultLogger     *Logger
	defaultLoggerOnce sync.Once
)

type Logger struct {
	zapLogger *zap.Logger
	level     Level
}

// New builds a JSON logger writing to stderr. The first logger built becomes
// the process default returned by Provide.
func New(level Level) *Logger {
	logger := build(level)
	defaultLoggerOnce.Do(func() { defaultLogger = logger })
	return logger
}

func build(level Level) *Logger {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(toZapLevel(level)),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return &Logger{zapLogger: zapLogger, level: level}
}

// NewNop returns a logger that discards everything. Tests use it.
func NewNop() *Logger {
	return &Logger{zapLogger: zap.NewNop(), level: LevelError}
}

// Provide returns the process default logger, building an info-level one if
// none exists yet.
func Provide() *Logger {
	defaultLoggerOnce.Do(func() { defaultLogger = build(LevelInfo) })
	return defaultLogger
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, toZapFields(fields)...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, toZapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, toZapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, toZapFields(fields)...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(toZapFields(fields)...),
		level:     l.level,
	}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Sync() error { return l.zapLogger.Sync() }

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			out[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			out[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			out[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			out[i] = zap.Int(f.Key, f.Value.(int))
		case Int64Type:
			out[i] = zap.Int64(f.Key, f.Value.(int64))
		case StringType:
			out[i] = zap.String(f.Key, f.Value.(string))
		case StringerType:
			out[i] = zap.Stringer(f.Key, f.Value.(fmt.Stringer))
		case ErrorType:
			err, _ := f.Value.(error)
			out[i] = zap.NamedError(f.Key, err)
		default:
			out[i] = zap.Any(f.Key, f.Value)
		}
	}
	return out
}
