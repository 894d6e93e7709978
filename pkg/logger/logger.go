// Package logger is a small structured logging facade over zap.
//
// Services log through LogAttrs with typed attributes; Ctx enriches the logger
// with the request id carried in the context.
package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type (
	Level = zapcore.Level
	Attr  = zap.Field
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

func String(key, val string) Attr                 { return zap.String(key, val) }
func Int(key string, val int) Attr                { return zap.Int(key, val) }
func Int64(key string, val int64) Attr            { return zap.Int64(key, val) }
func Uint64(key string, val uint64) Attr          { return zap.Uint64(key, val) }
func Bool(key string, val bool) Attr              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Attr { return zap.Duration(key, val) }
func Time(key string, val time.Time) Attr         { return zap.Time(key, val) }
func Any(key string, val any) Attr                { return zap.Any(key, val) }

type Logger interface {
	LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr)
	Ctx(ctx context.Context) Logger
	With(args ...any) Logger
	Info(msg string)
	Infow(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Sync() error
}

type Config struct {
	Level      string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

type ZapAdapter struct {
	l *zap.Logger
	// boundID is set once Ctx attached a request id, LogAttrs must not add it again.
	boundID bool
}

// NewZapAdapter writes JSON to stdout and, when cfg.Filename is set, to a rotated file.
// The local environment gets a human readable console encoder instead.
func NewZapAdapter(service, env string, cfg Config) (*ZapAdapter, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger.NewZapAdapter: parse level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var stdoutEnc zapcore.Encoder
	if env == "local" {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEnc = zapcore.NewConsoleEncoder(devCfg)
	} else {
		stdoutEnc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEnc, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Filename != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("service", service), zap.String("env", env))

	return &ZapAdapter{l: l}, nil
}

// NewFromZap wraps an existing zap logger, tests use it with zaptest/observer.
func NewFromZap(l *zap.Logger) *ZapAdapter {
	return &ZapAdapter{l: l}
}

func NewNop() *ZapAdapter {
	return &ZapAdapter{l: zap.NewNop()}
}

func (z *ZapAdapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	ce := z.l.Check(level, msg)
	if ce == nil {
		return
	}
	if id, ok := RequestIDFromContext(ctx); ok && !z.boundID {
		attrs = append(attrs, zap.String(_requestIDKey, id))
	}
	ce.Write(attrs...)
}

func (z *ZapAdapter) Ctx(ctx context.Context) Logger {
	if id, ok := RequestIDFromContext(ctx); ok && !z.boundID {
		return &ZapAdapter{l: z.l.With(zap.String(_requestIDKey, id)), boundID: true}
	}
	return z
}

func (z *ZapAdapter) With(args ...any) Logger {
	return &ZapAdapter{l: z.l.Sugar().With(args...).Desugar(), boundID: z.boundID}
}

func (z *ZapAdapter) Info(msg string) {
	z.l.Info(msg)
}

func (z *ZapAdapter) Infow(msg string, keysAndValues ...any) {
	z.l.Sugar().Infow(msg, keysAndValues...)
}

func (z *ZapAdapter) Errorw(msg string, keysAndValues ...any) {
	z.l.Sugar().Errorw(msg, keysAndValues...)
}

func (z *ZapAdapter) Sync() error {
	return z.l.Sync()
}

const _requestIDKey = "request_id"

type requestIDCtxKey struct{}

func GenerateRequestID() string {
	return uuid.NewString()
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDCtxKey{}).(string)
	return id, ok && id != ""
}
