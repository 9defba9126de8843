// Package pipeline runs descriptor sources through load → resolve → lock
// with caching, so the CLI and the API server share one code path.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Resolve(ctx, pipeline.Options{
//	    Filename: "recipe.hcl",
//	    Source:   src,
//	    Platform: p,
//	})
//	if err != nil {
//	    return err
//	}
//	for _, lock := range result.Locks {
//	    lock.WriteJSON(os.Stdout)
//	}
//
// Cache entries are keyed by the descriptor content hash, the requested
// recipe and the platform string. Evaluation is a pure function of those,
// so an entry never needs invalidation, only expiry.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// Options configures one resolution run.
type Options struct {
	// Filename selects the descriptor serialization by extension.
	Filename string `json:"filename"`
	// Source is the descriptor text.
	Source []byte `json:"-"`
	// Platform is the evaluation context. Each recipe sees it projected
	// onto its own settings.
	Platform platform.Platform `json:"-"`
	// Recipe restricts the run to one recipe of the document.
	Recipe string `json:"recipe,omitempty"`
	// Refresh bypasses the cache read but still writes the result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Validate checks required fields and fills defaults.
func (o *Options) Validate() error {
	if err := errors.ValidateDescriptorFilename(o.Filename); err != nil {
		return err
	}
	if len(o.Source) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "descriptor source is empty")
	}
	if o.Recipe != "" {
		if err := errors.ValidateRecipeName(o.Recipe); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Result contains the outputs of a resolution run.
type Result struct {
	// Locks holds one lock per resolved recipe in document order.
	Locks []*resolve.Lock
	// SourceHash is the SHA-256 of the descriptor source.
	SourceHash string
	// CacheHit reports whether Locks came from the cache.
	CacheHit bool
	Stats    Stats
}

// Stats contains run statistics.
type Stats struct {
	Recipes     int
	Requires    int
	LoadTime    time.Duration
	ResolveTime time.Duration
}
