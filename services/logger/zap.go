package logsvc

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/user"
)

// ZapLogger is the console logger used in DEV and by the admin CLI.
type ZapLogger struct {
	l *zap.Logger
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	zc := zap.NewDevelopmentConfig()
	if !conf.Debug {
		zc = zap.NewProductionConfig()
	}
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !conf.Debug {
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	l, err := zc.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("env", conf.Env)))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{l: l}, nil
}

// NewNopLogger discards everything; used by tests.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{l: zap.NewNop()}
}

// fields maps the core.Logger args: errors, context maps and the acting user.
func fields(args []interface{}) []zap.Field {
	fs := make([]zap.Field, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			fs = append(fs, zap.Error(a))
		case user.User:
			fs = append(fs, zap.String("user_id", a.ID), zap.String("user_email", a.Email))
		case map[string]interface{}:
			for k, v := range a {
				fs = append(fs, zap.Any(k, v))
			}
		default:
			fs = append(fs, zap.Any("arg", a))
		}
	}
	return fs
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.l.Debug(msg, fields(args)...) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.l.Info(msg, fields(args)...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.l.Warn(msg, fields(args)...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.l.Error(msg, fields(args)...) }
func (l *ZapLogger) Fatal(msg string, args ...interface{}) { l.l.Fatal(msg, fields(args)...) }

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error { return l.l.Sync() }
