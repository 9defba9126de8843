package style

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// Kind is the value type of an option.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Option describes one recognized key of the formatter schema.
type Option struct {
	Section string
	Key     string
	Kind    Kind
	Default any      // int, bool or string matching Kind
	Enum    []string // allowed values for string options; empty means any
	Help    string
}

// Section names.
const (
	SectionFormat = "format"
	SectionMarkup = "markup"
	SectionEncode = "encode"
)

var schema = []Option{
	{SectionFormat, "line_width", KindInt, 80, nil, "How wide to allow formatted listfiles"},
	{SectionFormat, "tab_size", KindInt, 2, nil, "How many spaces to tab for indent"},
	{SectionFormat, "use_tabchars", KindBool, false, nil, "Indent with tab characters instead of spaces"},
	{SectionFormat, "max_subgroups_hwrap", KindInt, 2, nil, "Max subgroups before a statement is wrapped vertically"},
	{SectionFormat, "max_pargs_hwrap", KindInt, 6, nil, "Max positional arguments before vertical wrapping"},
	{SectionFormat, "max_rows_cmdline", KindInt, 2, nil, "Max rows a positional group may consume"},
	{SectionFormat, "separate_ctrl_name_with_space", KindBool, false, nil, "Space between control statement and its parentheses"},
	{SectionFormat, "separate_fn_name_with_space", KindBool, false, nil, "Space between function name and its parentheses"},
	{SectionFormat, "dangle_parens", KindBool, false, nil, "Put the closing parenthesis on its own line when wrapped"},
	{SectionFormat, "dangle_align", KindString, "prefix", []string{"prefix", "prefix-indent", "child", "off"}, "Alignment of a dangling parenthesis"},
	{SectionFormat, "min_prefix_chars", KindInt, 4, nil, "Statements shorter than this are never nested"},
	{SectionFormat, "max_prefix_chars", KindInt, 10, nil, "Statements longer than this are always nested"},
	{SectionFormat, "max_lines_hwrap", KindInt, 2, nil, "Max lines a horizontally wrapped group may take"},
	{SectionFormat, "line_ending", KindString, "unix", []string{"unix", "windows", "auto"}, "Line ending style"},
	{SectionFormat, "command_case", KindString, "canonical", []string{"lower", "upper", "canonical", "unchanged"}, "Case of command names"},
	{SectionFormat, "keyword_case", KindString, "unchanged", []string{"lower", "upper", "unchanged"}, "Case of keywords"},
	{SectionFormat, "enable_sort", KindBool, true, nil, "Sort argument lists known to be sortable"},
	{SectionFormat, "autosort", KindBool, false, nil, "Sort argument lists heuristically"},

	{SectionMarkup, "enable_markup", KindBool, true, nil, "Parse and reflow comment markup"},
	{SectionMarkup, "bullet_char", KindString, "*", nil, "Character used for bulleted lists"},
	{SectionMarkup, "enum_char", KindString, ".", nil, "Punctuation after numerals in enumerated lists"},
	{SectionMarkup, "first_comment_is_literal", KindBool, false, nil, "Leave the first comment block untouched"},
	{SectionMarkup, "hashruler_min_length", KindInt, 10, nil, "Minimum length of a hash ruler"},
	{SectionMarkup, "canonicalize_hashrulers", KindBool, true, nil, "Reformat hash rulers to the full line width"},

	{SectionEncode, "emit_byteorder_mark", KindBool, false, nil, "Write a byte order mark"},
	{SectionEncode, "input_encoding", KindString, "utf-8", nil, "Encoding of input files"},
	{SectionEncode, "output_encoding", KindString, "utf-8", nil, "Encoding of output files"},
}

// Schema returns every recognized option in declaration order.
func Schema() []Option {
	return slices.Clone(schema)
}

// SectionNames returns the recognized sections in declaration order.
func SectionNames() []string {
	return []string{SectionFormat, SectionMarkup, SectionEncode}
}

// Lookup finds the option for section and key.
func Lookup(section, key string) (Option, bool) {
	for _, o := range schema {
		if o.Section == section && o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

func isSection(name string) bool {
	return slices.Contains(SectionNames(), name)
}

// coerce converts a decoded value into the option's Go type.
// TOML yields int64 and YAML yields int, so both are accepted.
func (o Option) coerce(v any) (any, error) {
	switch o.Kind {
	case KindInt:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int64:
			n = x
		case uint64:
			if x > math.MaxInt {
				return nil, o.rangeError(v)
			}
			n = int64(x)
		default:
			return nil, o.typeError(v)
		}
		if n < 0 {
			return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s.%s must not be negative, got %d", o.Section, o.Key, n)
		}
		if n > math.MaxInt {
			return nil, o.rangeError(v)
		}
		return int(n), nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, o.typeError(v)
		}
		return b, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, o.typeError(v)
		}
		if len(o.Enum) > 0 && !slices.Contains(o.Enum, s) {
			return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s.%s must be one of %s, got %q",
				o.Section, o.Key, strings.Join(o.Enum, ", "), s)
		}
		return s, nil
	}
	return nil, o.typeError(v)
}

// parse converts a command-line string into the option's Go type.
func (o Option) parse(raw string) (any, error) {
	switch o.Kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "%s.%s expects an integer", o.Section, o.Key)
		}
		return o.coerce(n)
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "%s.%s expects a boolean", o.Section, o.Key)
		}
		return b, nil
	}
	return o.coerce(raw)
}

func (o Option) rangeError(v any) error {
	return errors.New(errors.ErrCodeMalformedDescriptor, "%s.%s is out of range, got %v", o.Section, o.Key, v)
}

func (o Option) typeError(v any) error {
	return errors.New(errors.ErrCodeMalformedDescriptor, "%s.%s expects %s, got %T", o.Section, o.Key, o.Kind, v)
}
