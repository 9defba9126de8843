package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/pipeline"
	"github.com/matzehuels/stackrecipe/pkg/platform"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// platformFlags holds the flags that describe the target platform.
type platformFlags struct {
	settings []string
	detect   bool
}

func (f *platformFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.settings, "setting", "s", nil, "platform setting axis=value (repeatable, comma separated)")
	cmd.Flags().BoolVar(&f.detect, "detect", false, "start from the host platform; --setting values override it")
}

// platform builds the evaluation context. Without --detect and --setting
// every axis is unset, so no axis rule fires.
func (f *platformFlags) platform() (platform.Platform, error) {
	var base platform.Platform
	if f.detect {
		base = platform.Detect()
	}
	p, err := platform.Parse(strings.Join(f.settings, ","))
	if err != nil {
		return platform.Platform{}, err
	}
	return base.Merge(p), nil
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		pf      platformFlags
		name    string
		format  string
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <recipe-file>",
		Short: "Resolve a recipe's requirements for a platform",
		Long: `Evaluate the recipes in a descriptor against a target platform and print
their final requirement lists.

When the file declares several recipes, no --recipe is given and stdout is
a terminal, an interactive picker selects one.`,
		Example: `  stackrecipe resolve recipe.hcl -s os=Linux -s arch=x86_64
  stackrecipe resolve render.recipe.toml --recipe rawrbox-render --format json
  stackrecipe resolve recipe.hcl --detect -s build_type=Debug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (use text or json)", format)
			}
			p, err := pf.platform()
			if err != nil {
				return err
			}
			path := args[0]
			src, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
			}

			if name == "" && format == formatText && c.interactive() {
				if recipes, err := recipe.Parse(path, src); err == nil && len(recipes) > 1 {
					picked, err := pickRecipe(recipes)
					if err != nil {
						return err
					}
					name = picked.Name
				}
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(cmd.Context()))
			result, err := runner.Resolve(cmd.Context(), pipeline.Options{
				Filename: filepath.Base(path),
				Source:   src,
				Platform: p,
				Recipe:   name,
				Refresh:  refresh,
			})
			if err != nil {
				return err
			}
			prog.done("resolve finished", "recipes", result.Stats.Recipes, "cached", result.CacheHit)

			if format == formatJSON {
				return c.writeLocks(output, result.Locks)
			}
			printLocks(result)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&name, "recipe", "r", "", "resolve only the named recipe")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON locks to this file instead of stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the resolution cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results and resolve again")

	return cmd
}

// writeLocks writes locks as an indented JSON array to path, or to c.Out
// when path is empty.
func (c *CLI) writeLocks(path string, locks []*resolve.Lock) error {
	if path == "" {
		return encodeLocks(c.Out, locks)
	}
	if err := writeLocksFile(path, locks); err != nil {
		return err
	}
	printSuccess("Wrote %s", plural(len(locks), "lock"))
	printFile(path)
	return nil
}

// writeLocksFile writes locks to path. A failed close is an error.
func writeLocksFile(path string, locks []*resolve.Lock) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := encodeLocks(f, locks); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "close %s", path)
	}
	return nil
}

func encodeLocks(w io.Writer, locks []*resolve.Lock) error {
	if locks == nil {
		locks = []*resolve.Lock{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(locks)
}

// printLocks renders each lock as a titled block followed by the stats line.
func printLocks(result *pipeline.Result) {
	for i, l := range result.Locks {
		if i > 0 {
			printNewline()
		}
		title := l.Recipe
		if l.Version != "" {
			title += "/" + l.Version
		}
		fmt.Println(StyleTitle.Render(title))
		plat := platform.Platform{}
		if p, err := platform.New(l.Platform); err == nil {
			plat = p
		}
		if s := plat.String(); s != "" {
			printKeyValue("platform", s)
		} else {
			printKeyValue("platform", StyleDim.Render("(any)"))
		}
		printKeyValue("digest", shortDigest(l.Digest))
		if len(l.Generators) > 0 {
			printKeyValue("generators", strings.Join(l.Generators, ", "))
		}
		for _, req := range l.Requires {
			printFile(req)
		}
	}
	printNewline()
	printStats(result.Stats.Recipes, result.Stats.Requires, result.CacheHit)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
