package style

import (
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// EncodeOptions controls serialization.
type EncodeOptions struct {
	// IncludeDefaults writes every recognized option, not just the ones set.
	IncludeDefaults bool
}

// Encode writes s in the given format. Keys are emitted in sorted order so
// the output is stable, and the result loads back to the same settings.
func Encode(w io.Writer, s *Settings, format Format, opts EncodeOptions) error {
	doc := s.Explicit()
	if opts.IncludeDefaults {
		doc = s.Resolved()
	}

	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported style format %q", format)
}
