package recipe

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

// settingsVar is the object that exposes every axis as an attribute, so
// predicates can read either `os` or `settings.os`.
const settingsVar = "settings"

var predicateFuncs = map[string]function.Function{
	"lower":    stdlib.LowerFunc,
	"upper":    stdlib.UpperFunc,
	"contains": stdlib.ContainsFunc,
}

type hclFile struct {
	Recipes []*hclRecipe `hcl:"recipe,block"`
}

type hclRecipe struct {
	Name       string     `hcl:"name,label"`
	Version    string     `hcl:"version,optional"`
	Settings   []string   `hcl:"settings,optional"`
	Requires   []string   `hcl:"requires,optional"`
	Generators []string   `hcl:"generators,optional"`
	Rules      []*hclRule `hcl:"rule,block"`
}

type hclRule struct {
	When     hcl.Expression `hcl:"when"`
	Requires []string       `hcl:"requires"`
}

type hclParser struct{}

func (hclParser) Format() string { return "hcl" }

func (hclParser) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".hcl")
}

func (hclParser) Parse(filename string, src []byte) ([]*Recipe, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags, filename)
	}

	var decoded hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &decoded); diags.HasErrors() {
		return nil, diagError(diags, filename)
	}
	if len(decoded.Recipes) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s: no recipe blocks", filename)
	}

	recipes := make([]*Recipe, 0, len(decoded.Recipes))
	for _, hr := range decoded.Recipes {
		r, err := hr.toRecipe(filename, src)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

func (hr *hclRecipe) toRecipe(filename string, src []byte) (*Recipe, error) {
	requires, err := parseReferences(hr.Requires)
	if err != nil {
		return nil, err
	}

	r := &Recipe{
		Name:       hr.Name,
		Version:    hr.Version,
		Settings:   hr.Settings,
		Requires:   requires,
		Generators: hr.Generators,
		Source:     filename,
	}

	for _, rule := range hr.Rules {
		pred, err := newExprPredicate(rule.When, src)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "recipe %s", hr.Name)
		}
		refs, err := parseReferences(rule.Requires)
		if err != nil {
			return nil, err
		}
		r.Rules = append(r.Rules, Rule{When: pred, Requires: refs})
	}
	return r, nil
}

// exprPredicate evaluates an HCL boolean expression against the platform.
type exprPredicate struct {
	expr hcl.Expression
	text string
	axes []string
}

func newExprPredicate(expr hcl.Expression, src []byte) (*exprPredicate, error) {
	axes, err := referencedAxes(expr)
	if err != nil {
		return nil, err
	}
	if err := checkComparedValues(expr); err != nil {
		return nil, err
	}
	p := &exprPredicate{
		expr: expr,
		text: strings.TrimSpace(string(expr.Range().SliceBytes(src))),
		axes: axes,
	}
	// Evaluating once against an empty platform surfaces type errors at load
	// time instead of on the first matching build.
	if _, err := p.Holds(platform.Platform{}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *exprPredicate) Holds(plat platform.Platform) (bool, error) {
	v, diags := p.expr.Value(evalContext(plat))
	if diags.HasErrors() {
		return false, errors.Wrap(errors.ErrCodeMalformedDescriptor, diags, "evaluate %s", p.text)
	}
	if v.IsNull() || !v.IsKnown() {
		return false, errors.New(errors.ErrCodeMalformedDescriptor, "predicate %s has no value", p.text)
	}
	if !v.Type().Equals(cty.Bool) {
		return false, errors.New(errors.ErrCodeMalformedDescriptor, "predicate %s must be a bool, got %s",
			p.text, v.Type().FriendlyName())
	}
	return v.True(), nil
}

func (p *exprPredicate) Axes() []string { return slices.Clone(p.axes) }

func (p *exprPredicate) String() string { return p.text }

func evalContext(plat platform.Platform) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(platform.Axes())+1)
	attrs := make(map[string]cty.Value, len(platform.Axes()))
	for _, axis := range platform.Axes() {
		v, _ := plat.Get(axis)
		vars[axis] = cty.StringVal(v)
		attrs[axis] = cty.StringVal(v)
	}
	vars[settingsVar] = cty.ObjectVal(attrs)
	return &hcl.EvalContext{Variables: vars, Functions: predicateFuncs}
}

func referencedAxes(expr hcl.Expression) ([]string, error) {
	var axes []string
	for _, trav := range expr.Variables() {
		axis := trav.RootName()
		if axis == settingsVar {
			if len(trav) < 2 {
				return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s: settings must be followed by an axis", trav.SourceRange())
			}
			attr, ok := trav[1].(hcl.TraverseAttr)
			if !ok {
				return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s: use settings.<axis>", trav.SourceRange())
			}
			axis = attr.Name
		}
		if !platform.IsAxis(axis) {
			return nil, errors.New(errors.ErrCodeUnknownOption, "%s: unknown axis %q (known: %s)",
				trav.SourceRange(), axis, strings.Join(platform.Axes(), ", "))
		}
		if !slices.Contains(axes, axis) {
			axes = append(axes, axis)
		}
	}
	slices.Sort(axes)
	return axes, nil
}

// checkComparedValues rejects comparisons of an axis against a string
// literal the axis can never take, such as os == "linux".
func checkComparedValues(expr hcl.Expression) error {
	root, ok := expr.(hclsyntax.Expression)
	if !ok {
		return nil
	}
	var err error
	hclsyntax.VisitAll(root, func(n hclsyntax.Node) hcl.Diagnostics {
		bin, ok := n.(*hclsyntax.BinaryOpExpr)
		if !ok || err != nil || (bin.Op != hclsyntax.OpEqual && bin.Op != hclsyntax.OpNotEqual) {
			return nil
		}
		axis, ok := comparedAxis(bin.LHS)
		lit := bin.RHS
		if !ok {
			axis, ok = comparedAxis(bin.RHS)
			lit = bin.LHS
		}
		if !ok {
			return nil
		}
		value, ok := stringLiteral(lit)
		if !ok {
			return nil
		}
		if known := platform.Values(axis); !slices.Contains(known, value) {
			err = errors.New(errors.ErrCodeUnknownOption, "%s: unknown %s %q (known: %s)",
				lit.Range(), axis, value, strings.Join(known, ", "))
		}
		return nil
	})
	return err
}

// comparedAxis returns the axis a bare `os` or `settings.os` reference names.
func comparedAxis(e hclsyntax.Expression) (string, bool) {
	ref, ok := e.(*hclsyntax.ScopeTraversalExpr)
	if !ok {
		return "", false
	}
	trav := ref.Traversal
	axis := trav.RootName()
	if axis == settingsVar && len(trav) == 2 {
		if attr, ok := trav[1].(hcl.TraverseAttr); ok {
			axis = attr.Name
		}
	}
	return axis, platform.IsAxis(axis)
}

func stringLiteral(e hclsyntax.Expression) (string, bool) {
	if len(e.Variables()) > 0 {
		return "", false
	}
	v, diags := e.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.String) {
		return "", false
	}
	return v.AsString(), true
}

// diagError maps HCL diagnostics onto descriptor error codes. Arguments and
// blocks the schema does not know are UNKNOWN_OPTION; everything else is
// MALFORMED_DESCRIPTOR.
func diagError(diags hcl.Diagnostics, filename string) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		switch d.Summary {
		case "Unsupported argument", "Unsupported block type":
			return errors.New(errors.ErrCodeUnknownOption, "%s", d.Error())
		}
	}
	return errors.Wrap(errors.ErrCodeMalformedDescriptor, diags, "parse %s", filename)
}
