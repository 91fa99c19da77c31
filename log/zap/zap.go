// Package zap adapts ringcache.Logger to a *zap.Logger.
package zap

import (
	"go.uber.org/zap"

	"ringcache"
)

// Logger implements ringcache.Logger by delegating to L.
type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f ringcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f ringcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f ringcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f ringcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f ringcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

var _ ringcache.Logger = Logger{}
