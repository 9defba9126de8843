package resolve

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"maps"
	"slices"
	"strings"
)

// Lock is the serialized result of a resolution, handed to the external
// dependency resolver. Field order is fixed so encoding is byte-stable.
type Lock struct {
	Recipe     string            `json:"recipe" bson:"recipe"`
	Version    string            `json:"version,omitempty" bson:"version,omitempty"`
	Source     string            `json:"source,omitempty" bson:"source,omitempty"`
	Platform   map[string]string `json:"platform" bson:"platform"`
	Requires   []string          `json:"requires" bson:"requires"`
	Generators []string          `json:"generators" bson:"generators"`
	Rules      []int             `json:"applied_rules,omitempty" bson:"applied_rules,omitempty"`
	Digest     string            `json:"digest" bson:"_id"`
}

// Lock converts the resolution into its serialized form.
func (r *Resolution) Lock() *Lock {
	requires := r.Strings()
	generators := r.Generators
	if generators == nil {
		generators = []string{}
	}
	return &Lock{
		Recipe:     r.Recipe.Name,
		Version:    r.Recipe.Version,
		Source:     r.Recipe.Source,
		Platform:   r.Platform.Map(),
		Requires:   requires,
		Generators: generators,
		Rules:      r.Applied,
		Digest:     Digest(r.Recipe.Name, r.Recipe.Version, r.Platform.String(), requires, generators),
	}
}

// Digest identifies a resolved requirement set. Two locks with the same
// recipe identity, platform, requirement order and generators share a digest.
func Digest(name, version, platform string, requires, generators []string) string {
	h := sha256.New()
	io.WriteString(h, name+"/"+version+"\n")
	io.WriteString(h, platform+"\n")
	io.WriteString(h, strings.Join(requires, "\n")+"\n\n")
	io.WriteString(h, strings.Join(generators, "\n"))
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a deep copy of the lock.
func (l *Lock) Clone() *Lock {
	cp := *l
	cp.Platform = maps.Clone(l.Platform)
	cp.Requires = slices.Clone(l.Requires)
	cp.Generators = slices.Clone(l.Generators)
	cp.Rules = slices.Clone(l.Rules)
	return &cp
}

// WriteJSON writes the lock as indented JSON.
func (l *Lock) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// ReadLock decodes a lock written by WriteJSON.
func ReadLock(r io.Reader) (*Lock, error) {
	var l Lock
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}
