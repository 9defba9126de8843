// Package platform models the build platform a recipe is evaluated against.
//
// A [Platform] is an immutable set of axis values (os, compiler, build_type,
// arch). Updates return a new value, so a Platform can be shared freely
// between goroutines evaluating unrelated recipes.
//
//	p, err := platform.Parse("os=Linux,arch=x86_64")
//	p = p.With(platform.AxisBuildType, "Debug")
package platform

import (
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// Axis names a dimension a build varies over.
const (
	AxisOS        = "os"
	AxisCompiler  = "compiler"
	AxisBuildType = "build_type"
	AxisArch      = "arch"
)

// knownValues lists the accepted values per axis.
var knownValues = map[string][]string{
	AxisOS:        {"Linux", "Windows", "Macos", "FreeBSD", "Android", "iOS", "Emscripten"},
	AxisCompiler:  {"gcc", "clang", "apple-clang", "msvc"},
	AxisBuildType: {"Debug", "Release", "RelWithDebInfo", "MinSizeRel"},
	AxisArch:      {"x86", "x86_64", "armv7", "armv8", "wasm"},
}

// Axes returns the known axis names in canonical order.
func Axes() []string {
	return []string{AxisOS, AxisCompiler, AxisBuildType, AxisArch}
}

// IsAxis reports whether name is a known axis.
func IsAxis(name string) bool {
	_, ok := knownValues[name]
	return ok
}

// Values returns the accepted values for axis, or nil for an unknown axis.
func Values(axis string) []string {
	return slices.Clone(knownValues[axis])
}

// Platform is an immutable mapping from axis to value.
// The zero value is an empty platform with every axis unset.
type Platform struct {
	values map[string]string
}

// New builds a Platform from an axis/value map, validating every entry.
func New(values map[string]string) (Platform, error) {
	p := Platform{values: make(map[string]string, len(values))}
	for axis, value := range values {
		if err := validate(axis, value); err != nil {
			return Platform{}, err
		}
		p.values[axis] = value
	}
	return p, nil
}

// Parse reads a comma separated list of axis=value pairs.
// An empty string yields an empty platform.
func Parse(s string) (Platform, error) {
	values := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		axis, value, ok := strings.Cut(part, "=")
		if !ok {
			return Platform{}, errors.New(errors.ErrCodeInvalidPlatform, "expected axis=value, got %q", part)
		}
		axis, value = strings.TrimSpace(axis), strings.TrimSpace(value)
		if _, dup := values[axis]; dup {
			return Platform{}, errors.New(errors.ErrCodeInvalidPlatform, "axis %q given twice", axis)
		}
		values[axis] = value
	}
	return New(values)
}

// Detect describes the host the process runs on. The build type defaults to
// Release and the compiler to the platform's usual toolchain.
func Detect() Platform {
	return detect(runtime.GOOS, runtime.GOARCH)
}

func detect(goos, goarch string) Platform {
	values := map[string]string{AxisBuildType: "Release"}
	switch goos {
	case "linux":
		values[AxisOS], values[AxisCompiler] = "Linux", "gcc"
	case "windows":
		values[AxisOS], values[AxisCompiler] = "Windows", "msvc"
	case "darwin":
		values[AxisOS], values[AxisCompiler] = "Macos", "apple-clang"
	case "freebsd":
		values[AxisOS], values[AxisCompiler] = "FreeBSD", "clang"
	case "android":
		values[AxisOS], values[AxisCompiler] = "Android", "clang"
	case "ios":
		values[AxisOS], values[AxisCompiler] = "iOS", "apple-clang"
	case "js":
		values[AxisOS], values[AxisCompiler] = "Emscripten", "clang"
	}
	switch goarch {
	case "amd64":
		values[AxisArch] = "x86_64"
	case "386":
		values[AxisArch] = "x86"
	case "arm64":
		values[AxisArch] = "armv8"
	case "arm":
		values[AxisArch] = "armv7"
	case "wasm":
		values[AxisArch] = "wasm"
	}
	return Platform{values: values}
}

// Get returns the value of axis and whether it is set.
func (p Platform) Get(axis string) (string, bool) {
	v, ok := p.values[axis]
	return v, ok
}

// With returns a copy of p with axis set to value.
func (p Platform) With(axis, value string) (Platform, error) {
	if err := validate(axis, value); err != nil {
		return Platform{}, err
	}
	next := Platform{values: maps.Clone(p.values)}
	if next.values == nil {
		next.values = map[string]string{}
	}
	next.values[axis] = value
	return next, nil
}

// Merge returns a copy of p overlaid with every value set in other.
func (p Platform) Merge(other Platform) Platform {
	next := Platform{values: maps.Clone(p.values)}
	if next.values == nil {
		next.values = map[string]string{}
	}
	maps.Copy(next.values, other.values)
	return next
}

// Project restricts p to the given axes. Axes that are not set stay unset.
func (p Platform) Project(axes []string) Platform {
	next := Platform{values: map[string]string{}}
	for _, axis := range axes {
		if v, ok := p.values[axis]; ok {
			next.values[axis] = v
		}
	}
	return next
}

// Map returns a copy of the axis values.
func (p Platform) Map() map[string]string {
	m := maps.Clone(p.values)
	if m == nil {
		m = map[string]string{}
	}
	return m
}

// String renders the platform as sorted axis=value pairs, e.g.
// "arch=x86_64,os=Linux". The output is stable and suitable for cache keys.
func (p Platform) String() string {
	parts := make([]string, 0, len(p.values))
	for _, axis := range slices.Sorted(maps.Keys(p.values)) {
		parts = append(parts, axis+"="+p.values[axis])
	}
	return strings.Join(parts, ",")
}

func validate(axis, value string) error {
	allowed, ok := knownValues[axis]
	if !ok {
		return errors.New(errors.ErrCodeInvalidPlatform, "unknown axis %q (known: %s)", axis, strings.Join(Axes(), ", "))
	}
	if !slices.Contains(allowed, value) {
		return errors.New(errors.ErrCodeInvalidPlatform, "invalid %s %q (known: %s)", axis, value, strings.Join(allowed, ", "))
	}
	return nil
}
