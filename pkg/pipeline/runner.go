package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackrecipe/pkg/cache"
	"github.com/matzehuels/stackrecipe/pkg/observability"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
	"github.com/matzehuels/stackrecipe/pkg/style"
)

const (
	keyTypeResolution = "resolution"
	keyTypeStyle      = "style"
)

// Runner encapsulates resolution with caching.
//
// The Runner holds no per-run state, so multiple goroutines can share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLResolution,
	}
}

// Resolve loads the descriptor in opts and evaluates its recipes against
// opts.Platform. Descriptor errors are returned unchanged so callers can
// inspect their codes.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{SourceHash: cache.Hash(append([]byte(opts.Filename+"\x00"), opts.Source...))}
	key := r.Keyer.ResolutionKey(result.SourceHash, opts.Recipe, opts.Platform.String())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if locks, ok := r.cachedLocks(ctx, key); ok {
			result.Locks = locks
			result.CacheHit = true
			result.Stats.Recipes = len(locks)
			for _, l := range locks {
				result.Stats.Requires += len(l.Requires)
			}
			opts.Logger.Debug("resolution cache hit", "file", opts.Filename, "platform", opts.Platform)
			return result, nil
		}
	}

	loadStart := time.Now()
	recipes, err := r.load(ctx, opts.Filename, opts.Source)
	result.Stats.LoadTime = time.Since(loadStart)
	if err != nil {
		return nil, err
	}
	if opts.Recipe != "" {
		one, err := recipe.Find(recipes, opts.Recipe)
		if err != nil {
			return nil, err
		}
		recipes = []*recipe.Recipe{one}
	}

	resolveStart := time.Now()
	for _, rec := range recipes {
		lock, err := r.resolveOne(ctx, rec, opts)
		if err != nil {
			return nil, err
		}
		result.Locks = append(result.Locks, lock)
		result.Stats.Requires += len(lock.Requires)
	}
	result.Stats.Recipes = len(result.Locks)
	result.Stats.ResolveTime = time.Since(resolveStart)

	opts.Logger.Info("resolved descriptor",
		"file", opts.Filename,
		"recipes", result.Stats.Recipes,
		"requires", result.Stats.Requires,
		"duration", result.Stats.LoadTime+result.Stats.ResolveTime)

	// Cache the result
	if data, err := json.Marshal(result.Locks); err == nil {
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeResolution, len(data))
		}
	}
	return result, nil
}

// CheckStyle parses a style document and returns its settings. Valid
// documents are cached in canonical TOML form.
func (r *Runner) CheckStyle(ctx context.Context, filename string, src []byte) (*style.Settings, bool, error) {
	key := r.Keyer.StyleKey(cache.Hash(append([]byte(filename+"\x00"), src...)))

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		if s, err := style.Parse("cached.toml", data); err == nil {
			observability.Cache().OnCacheHit(ctx, keyTypeStyle)
			return s, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeStyle)

	start := time.Now()
	observability.Resolve().OnLoadStart(ctx, filename)
	s, err := style.Parse(filename, src)
	observability.Resolve().OnLoadComplete(ctx, filename, 0, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := style.Encode(&buf, s, style.FormatTOML, style.EncodeOptions{}); err == nil {
		_ = r.Cache.Set(ctx, key, buf.Bytes(), r.TTL)
		observability.Cache().OnCacheSet(ctx, keyTypeStyle, buf.Len())
	}
	return s, false, nil
}

func (r *Runner) cachedLocks(ctx context.Context, key string) ([]*resolve.Lock, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeResolution)
		return nil, false
	}
	var locks []*resolve.Lock
	if err := json.Unmarshal(data, &locks); err != nil {
		// undecodable entry, fall through to recompute
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeResolution)
	return locks, true
}

func (r *Runner) load(ctx context.Context, filename string, src []byte) ([]*recipe.Recipe, error) {
	start := time.Now()
	observability.Resolve().OnLoadStart(ctx, filename)
	recipes, err := recipe.Parse(filename, src)
	observability.Resolve().OnLoadComplete(ctx, filename, len(recipes), time.Since(start), err)
	return recipes, err
}

func (r *Runner) resolveOne(ctx context.Context, rec *recipe.Recipe, opts Options) (*resolve.Lock, error) {
	start := time.Now()
	p := opts.Platform.String()
	observability.Resolve().OnResolveStart(ctx, rec.Name, p)
	res, err := resolve.Resolve(rec, opts.Platform)
	if err != nil {
		observability.Resolve().OnResolveComplete(ctx, rec.Name, p, 0, time.Since(start), err)
		return nil, err
	}
	lock := res.Lock()
	observability.Resolve().OnResolveComplete(ctx, rec.Name, p, len(lock.Requires), time.Since(start), nil)
	opts.Logger.Debug("resolved recipe",
		"recipe", rec.Name,
		"platform", res.Platform,
		"requires", len(lock.Requires),
		"rules", len(res.Applied))
	return lock, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
