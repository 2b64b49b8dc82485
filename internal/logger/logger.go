package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the logging level
type Level int

const (
	// ErrorLevel logs only errors
	ErrorLevel Level = iota
	// InfoLevel logs errors and info messages
	InfoLevel
	// DebugLevel logs everything including debug messages
	DebugLevel
)

// EnvVerbose enables debug output when set to any non-empty value
const EnvVerbose = "PATCH_FIXER_VERBOSE"

// Logger provides leveled logging on top of zap
type Logger struct {
	level  Level
	output io.Writer
	sugar  *zap.SugaredLogger
}

// New creates a new logger with the specified level writing to stderr
func New(level Level) *Logger {
	l := &Logger{level: level}
	l.SetOutput(os.Stderr)
	return l
}

// NewFromEnv creates a logger based on environment variable
func NewFromEnv() *Logger {
	level := ErrorLevel
	if os.Getenv(EnvVerbose) != "" {
		level = DebugLevel
	}
	return New(level)
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{level: ErrorLevel, output: io.Discard, sugar: zap.NewNop().Sugar()}
}

// Level returns the configured level
func (l *Logger) Level() Level {
	return l.level
}

// SetLevel changes the level and rebuilds the zap core
func (l *Logger) SetLevel(level Level) {
	l.level = level
	l.SetOutput(l.output)
}

// SetOutput sets the output writer for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	encCfg := zapcore.EncoderConfig{
		LevelKey:       "level",
		MessageKey:     "msg",
		EncodeLevel:    encodeLevel,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		zapLevel(l.level),
	)
	l.sugar = zap.New(core).Sugar()
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}

// encodeLevel keeps the "[ERROR]" style prefix
func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}
