// Package style loads and validates formatter style descriptors.
//
// A style descriptor groups flat key/value options under named sections:
//
//	[format]
//	line_width = 120
//	tab_size = 4
//	dangle_parens = true
//
//	[markup]
//	enable_markup = false
//
// Loading is strict: unknown sections and keys fail with UNKNOWN_OPTION and
// badly typed values with MALFORMED_DESCRIPTOR. The result is an immutable
// [Settings] value that is passed explicitly to whatever consumes it.
package style

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// Settings holds the options a descriptor set explicitly. Options it did not
// set resolve to their schema default. Settings is immutable.
type Settings struct {
	explicit map[string]map[string]any
}

// Defaults returns settings with nothing set explicitly.
func Defaults() *Settings {
	return &Settings{explicit: map[string]map[string]any{}}
}

// FromMap validates a decoded section -> key -> value document.
// Sections and keys are checked in sorted order so the first reported error
// is stable for a given document.
func FromMap(doc map[string]any) (*Settings, error) {
	s := Defaults()
	for _, section := range slices.Sorted(maps.Keys(doc)) {
		if !isSection(section) {
			return nil, errors.New(errors.ErrCodeUnknownOption, "unknown section or option %q (known sections: %s)",
				section, strings.Join(SectionNames(), ", "))
		}
		if doc[section] == nil {
			// "format:" with no keys
			continue
		}
		body, ok := doc[section].(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedDescriptor, "section %q must be a table, got %T", section, doc[section])
		}
		values := make(map[string]any, len(body))
		for _, key := range slices.Sorted(maps.Keys(body)) {
			opt, ok := Lookup(section, key)
			if !ok {
				return nil, errors.New(errors.ErrCodeUnknownOption, "unknown option %q in section %q", key, section)
			}
			v, err := opt.coerce(body[key])
			if err != nil {
				return nil, err
			}
			values[key] = v
		}
		if len(values) > 0 {
			s.explicit[section] = values
		}
	}
	return s, nil
}

// Get returns the resolved value of an option: the explicit value when set,
// otherwise the schema default. ok is false for an unknown option.
func (s *Settings) Get(section, key string) (any, bool) {
	opt, ok := Lookup(section, key)
	if !ok {
		return nil, false
	}
	if v, ok := s.explicit[section][key]; ok {
		return v, true
	}
	return opt.Default, true
}

// IsSet reports whether the descriptor set the option explicitly.
func (s *Settings) IsSet(section, key string) bool {
	_, ok := s.explicit[section][key]
	return ok
}

// Int returns an integer option.
func (s *Settings) Int(section, key string) (int, bool) {
	v, ok := s.Get(section, key)
	n, isInt := v.(int)
	return n, ok && isInt
}

// Bool returns a boolean option.
func (s *Settings) Bool(section, key string) (bool, bool) {
	v, ok := s.Get(section, key)
	b, isBool := v.(bool)
	return b, ok && isBool
}

// String returns a string option.
func (s *Settings) String(section, key string) (string, bool) {
	v, ok := s.Get(section, key)
	str, isStr := v.(string)
	return str, ok && isStr
}

// With returns a copy of s with one option set. The value is validated
// against the schema exactly as a loaded document would be.
func (s *Settings) With(section, key string, value any) (*Settings, error) {
	opt, ok := Lookup(section, key)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownOption, "unknown option %q in section %q", key, section)
	}
	v, err := opt.coerce(value)
	if err != nil {
		return nil, err
	}
	return s.set(section, key, v), nil
}

// WithAssignment applies a "section.key=value" assignment, parsing value
// according to the option's kind.
func (s *Settings) WithAssignment(assignment string) (*Settings, error) {
	path, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedDescriptor, "expected section.key=value, got %q", assignment)
	}
	section, key, ok := strings.Cut(strings.TrimSpace(path), ".")
	if !ok {
		return nil, errors.New(errors.ErrCodeMalformedDescriptor, "expected section.key=value, got %q", assignment)
	}
	opt, ok := Lookup(section, key)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownOption, "unknown option %q in section %q", key, section)
	}
	v, err := opt.parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return s.set(section, key, v), nil
}

func (s *Settings) set(section, key string, v any) *Settings {
	next := &Settings{explicit: make(map[string]map[string]any, len(s.explicit)+1)}
	for name, values := range s.explicit {
		next.explicit[name] = maps.Clone(values)
	}
	if next.explicit[section] == nil {
		next.explicit[section] = map[string]any{}
	}
	next.explicit[section][key] = v
	return next
}

// Explicit returns a copy of the options the descriptor set.
func (s *Settings) Explicit() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.explicit))
	for name, values := range s.explicit {
		out[name] = maps.Clone(values)
	}
	return out
}

// Resolved returns every recognized option with its effective value.
func (s *Settings) Resolved() map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, opt := range schema {
		if out[opt.Section] == nil {
			out[opt.Section] = map[string]any{}
		}
		v, _ := s.Get(opt.Section, opt.Key)
		out[opt.Section][opt.Key] = v
	}
	return out
}
