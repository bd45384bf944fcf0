// Package logging adapts zap to the runtime.Logger interface so the standalone
// server and the Nakama module share one logging surface.
package logging

import (
	"maps"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// Logger implements runtime.Logger on top of a zap.SugaredLogger.
type Logger struct {
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

// New wraps base. A nil base yields a no-op logger.
func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{sugar: base.Sugar(), fields: map[string]interface{}{}}
}

// NewProduction builds a JSON logger, or a console logger when development is set.
func NewProduction(development bool) (*Logger, func(), error) {
	var (
		base *zap.Logger
		err  error
	)
	if development {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, err
	}
	return New(base), func() { _ = base.Sync() }, nil
}

func (l *Logger) Debug(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }

func (l *Logger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *Logger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := maps.Clone(l.fields)
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &Logger{sugar: l.sugar.With(args...), fields: merged}
}

func (l *Logger) Fields() map[string]interface{} {
	return maps.Clone(l.fields)
}

var _ runtime.Logger = (*Logger)(nil)
