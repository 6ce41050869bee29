// Package logging builds the process logger: a zap JSON console core, teed
// with the OpenTelemetry bridge when a logger provider is installed.
package logging

import (
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shopcore/internal/core"
)

// Settings configures logger construction.
type Settings struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Service is stamped onto every entry.
	Service string
	// OTelBridge tees entries into the globally installed OTel logger
	// provider.
	OTelBridge bool
}

// New builds the process logger.
func New(settings Settings) *zap.Logger {
	level := zapcore.InfoLevel
	if settings.Level != "" {
		if parsed, err := zapcore.ParseLevel(settings.Level); err == nil {
			level = parsed
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	)

	final := consoleCore
	if settings.OTelBridge {
		bridge := otelzap.NewCore(settings.Service,
			otelzap.WithLoggerProvider(global.GetLoggerProvider()),
		)
		final = zapcore.NewTee(consoleCore, bridge)
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if settings.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service.name", settings.Service)))
	}
	return zap.New(final, opts...)
}

// ServiceLogger adapts a zap sugared logger to the service logging seam.
type ServiceLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ServiceLogger)(nil)

// NewServiceLogger wraps logger for use by the registry service.
func NewServiceLogger(logger *zap.Logger) *ServiceLogger {
	return &ServiceLogger{sugar: logger.Sugar()}
}

func (l *ServiceLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *ServiceLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *ServiceLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *ServiceLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
