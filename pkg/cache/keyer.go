package cache

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// ResolutionKey identifies the lock for one recipe of a descriptor
	// evaluated on a platform.
	ResolutionKey(sourceHash, recipe, platform string) string
	// StyleKey identifies validated style settings for a descriptor.
	StyleKey(sourceHash string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResolutionKey hashes the components so keys have a fixed length.
func (DefaultKeyer) ResolutionKey(sourceHash, recipe, platform string) string {
	return hashKey("resolution", sourceHash, recipe, platform)
}

// StyleKey returns "style:<sourceHash>".
func (DefaultKeyer) StyleKey(sourceHash string) string {
	return "style:" + sourceHash
}
