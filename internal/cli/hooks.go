package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports pipeline and cache events at debug level.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) logHooks {
	return logHooks{logger: l}
}

func (h logHooks) OnLoadStart(_ context.Context, filename string) {
	h.logger.Debug("load start", "file", filename)
}

func (h logHooks) OnLoadComplete(_ context.Context, filename string, recipes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "file", filename, "duration", d, "error", err)
		return
	}
	h.logger.Debug("load complete", "file", filename, "recipes", recipes, "duration", d)
}

func (h logHooks) OnResolveStart(_ context.Context, recipe, platform string) {
	h.logger.Debug("resolve start", "recipe", recipe, "platform", platform)
}

func (h logHooks) OnResolveComplete(_ context.Context, recipe, platform string, requires int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resolve failed", "recipe", recipe, "platform", platform, "error", err)
		return
	}
	h.logger.Debug("resolve complete", "recipe", recipe, "platform", platform, "requires", requires, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
