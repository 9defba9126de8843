package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants or projects
// can share one backend (typically Redis) without seeing each other's
// entries.
//
//	teamKeyer := NewScopedKeyer(NewDefaultKeyer(), "team:engine:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResolutionKey generates a prefixed resolution key.
func (k *ScopedKeyer) ResolutionKey(sourceHash, recipe, platform string) string {
	return k.prefix + k.inner.ResolutionKey(sourceHash, recipe, platform)
}

// StyleKey generates a prefixed style key.
func (k *ScopedKeyer) StyleKey(sourceHash string) string {
	return k.prefix + k.inner.StyleKey(sourceHash)
}
