package log

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used across the garage service.
// Key/value pairs follow the logr convention; see toFields for the accepted shapes.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(err error, msg string, keysAndValues ...any)

	// WithName appends a segment to the logger name.
	WithName(name string) Logger
	WithValues(keysAndValues ...any) Logger

	// Logr adapts the logger for libraries that speak logr.
	Logr() logr.Logger

	Sync() error
}

var _ Logger = (*zapLogger)(nil)

type zapLogger struct {
	z *zap.Logger
}

// NewLogger builds a zap-backed Logger. Invalid output paths panic, since a
// daemon that cannot log should not start.
func NewLogger(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	sink, closeSink, err := zap.Open(paths...)
	if err != nil {
		panic(fmt.Sprintf("failed to open log outputs %v: %v", paths, err))
	}
	errSink, _, err := zap.Open("stderr")
	if err != nil {
		closeSink()
		panic(fmt.Sprintf("failed to open stderr: %v", err))
	}

	core := zapcore.NewCore(newEncoder(opts), sink, zap.NewAtomicLevelAt(ParseLevel(opts.Level)))

	zopts := []zap.Option{
		zap.ErrorOutput(errSink),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if !opts.DisableCaller {
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(opts.CallerSkip))
	}

	z := zap.New(core, zopts...)
	if opts.Name != "" {
		z = z.Named(opts.Name)
	}
	return &zapLogger{z: z}
}

func newEncoder(opts *Options) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	if opts.Format == "json" {
		cfg.EncodeDuration = func(d time.Duration, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendFloat64(float64(d) / float64(time.Millisecond))
		}
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if opts.EnableColor {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

// ParseLevel converts a textual level into a zap level, falling back to info.
func ParseLevel(text string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(text)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func (l *zapLogger) Debug(msg string, keysAndValues ...any) {
	l.z.Debug(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...any) {
	l.z.Info(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Warn(msg string, keysAndValues ...any) {
	l.z.Warn(msg, toFields(keysAndValues...)...)
}

func (l *zapLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := toFields(keysAndValues...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.z.Error(msg, fields...)
}

func (l *zapLogger) WithName(name string) Logger {
	return &zapLogger{z: l.z.Named(name)}
}

func (l *zapLogger) WithValues(keysAndValues ...any) Logger {
	return &zapLogger{z: l.z.With(toFields(keysAndValues...)...)}
}

func (l *zapLogger) Logr() logr.Logger {
	return zapr.NewLogger(l.z)
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &zapLogger{z: zap.NewNop()}
}

var (
	mu   sync.RWMutex
	once sync.Once
	std  = NewNopLogger()
)

// Init installs the process-wide logger. Later calls are ignored.
func Init(opts *Options) {
	once.Do(func() {
		l := NewLogger(opts)
		mu.Lock()
		std = l
		mu.Unlock()
	})
}

// Std returns the process-wide logger.
func Std() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debug(msg string, keysAndValues ...any)            { Std().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)             { Std().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)             { Std().Warn(msg, keysAndValues...) }
func Error(err error, msg string, keysAndValues ...any) { Std().Error(err, msg, keysAndValues...) }
func WithName(name string) Logger                       { return Std().WithName(name) }
func WithValues(keysAndValues ...any) Logger            { return Std().WithValues(keysAndValues...) }
func Sync() error                                       { return Std().Sync() }

type contextKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored by NewContext, or fallback when
// there is none. A nil fallback means the process-wide logger.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return Std()
}
