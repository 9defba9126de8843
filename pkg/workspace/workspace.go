// Package workspace loads every recipe under a directory and evaluates them
// together.
//
// Recipe files are recognised by name (recipe.hcl, recipe.toml,
// <target>.recipe.hcl, <target>.recipe.toml). Files are parsed
// concurrently and recipes are evaluated concurrently; evaluation is pure,
// so no coordination beyond collecting results is needed. Results are
// always ordered by recipe name.
//
// A requirement whose name matches another workspace recipe is a local
// edge. [BuildOrder] sorts recipes so each comes after the recipes it
// requires and fails with DEPENDENCY_CYCLE when that is impossible.
package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/observability"
	"github.com/matzehuels/stackrecipe/pkg/platform"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// Workspace is the set of recipes found under one directory.
type Workspace struct {
	Root    string
	Files   []string         // recipe files relative to Root, sorted
	Recipes []*recipe.Recipe // sorted by name
}

// Load finds and parses every recipe file under root. Hidden directories
// are skipped. A recipe name declared in two files fails with
// DUPLICATE_RECIPE naming both.
func Load(ctx context.Context, root string) (*Workspace, error) {
	logger := log.FromContext(ctx)

	files, err := discover(root)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered recipe files", "root", root, "files", len(files))

	perFile := make([][]*recipe.Recipe, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(root, rel)
			start := time.Now()
			observability.Resolve().OnLoadStart(gctx, path)
			recipes, err := recipe.Load(path)
			observability.Resolve().OnLoadComplete(gctx, path, len(recipes), time.Since(start), err)
			if err != nil {
				return err
			}
			for _, r := range recipes {
				r.Source = rel
			}
			perFile[i] = recipes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ws := &Workspace{Root: root, Files: files}
	seen := make(map[string]string)
	for i, recipes := range perFile {
		for _, r := range recipes {
			if prev, dup := seen[r.Name]; dup {
				return nil, errors.New(errors.ErrCodeDuplicateRecipe,
					"recipe %q declared in both %s and %s", r.Name, prev, files[i])
			}
			seen[r.Name] = files[i]
			ws.Recipes = append(ws.Recipes, r)
		}
	}
	slices.SortFunc(ws.Recipes, func(a, b *recipe.Recipe) int { return strings.Compare(a.Name, b.Name) })

	logger.Info("loaded workspace", "root", root, "files", len(files), "recipes", len(ws.Recipes))
	return ws, nil
}

func discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if recipe.IsRecipeFile(d.Name()) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan workspace %s", root)
	}
	slices.Sort(files)
	return files, nil
}

// Recipe returns the workspace recipe with the given name.
func (w *Workspace) Recipe(name string) (*recipe.Recipe, error) {
	return recipe.Find(w.Recipes, name)
}

// Names returns the recipe names in order.
func (w *Workspace) Names() []string {
	names := make([]string, len(w.Recipes))
	for i, r := range w.Recipes {
		names[i] = r.Name
	}
	return names
}

// ResolveAll evaluates every recipe against p concurrently. Results are in
// recipe name order. When several recipes fail, the error of the first one
// by name is returned so the outcome does not depend on scheduling.
func (w *Workspace) ResolveAll(ctx context.Context, p platform.Platform) ([]*resolve.Resolution, error) {
	results := make([]*resolve.Resolution, len(w.Recipes))
	errs := make([]error, len(w.Recipes))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range w.Recipes {
		g.Go(func() error {
			start := time.Now()
			observability.Resolve().OnResolveStart(ctx, r.Name, p.String())
			res, err := resolve.Resolve(r, p)
			n := 0
			if res != nil {
				n = len(res.Requires)
			}
			observability.Resolve().OnResolveComplete(ctx, r.Name, p.String(), n, time.Since(start), err)
			results[i], errs[i] = res, err
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	log.FromContext(ctx).Debug("resolved workspace", "recipes", len(results), "platform", p)
	return results, nil
}
