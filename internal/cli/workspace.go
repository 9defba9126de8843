package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	graphio "github.com/matzehuels/stackrecipe/pkg/io"
	"github.com/matzehuels/stackrecipe/pkg/render/nodelink"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
	"github.com/matzehuels/stackrecipe/pkg/workspace"
)

// workspaceCommand groups commands that operate on a directory of recipes.
func (c *CLI) workspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Resolve, order and graph every recipe under a directory",
	}

	cmd.AddCommand(c.workspaceResolveCommand())
	cmd.AddCommand(c.workspaceOrderCommand())
	cmd.AddCommand(c.workspaceGraphCommand())

	return cmd
}

// resolveWorkspace loads every recipe under dir and resolves them all
// against the platform described by pf.
func (c *CLI) resolveWorkspace(ctx context.Context, dir string, pf *platformFlags) ([]*resolve.Resolution, error) {
	p, err := pf.platform()
	if err != nil {
		return nil, err
	}

	spinner := newSpinner(ctx, os.Stderr, "Resolving workspace...", c.interactive())
	spinner.Start()
	defer spinner.Stop()

	prog := newProgress(loggerFromContext(ctx))
	ws, err := workspace.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	results, err := ws.ResolveAll(ctx, p)
	if err != nil {
		return nil, err
	}
	prog.done("workspace resolved", "dir", ws.Root, "files", len(ws.Files), "recipes", len(results))
	return results, nil
}

func (c *CLI) workspaceResolveCommand() *cobra.Command {
	var (
		pf     platformFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "resolve <dir>",
		Short: "Resolve every recipe in the workspace",
		Long: `Load every recipe.{hcl,toml} and <target>.recipe.{hcl,toml} below a
directory, resolve each one for the platform and report packages pinned to
different versions by different recipes.`,
		Example: `  stackrecipe workspace resolve . -s os=Linux
  stackrecipe workspace resolve ./recipes -s os=Windows --format json -o locks.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (use text or json)", format)
			}
			results, err := c.resolveWorkspace(cmd.Context(), args[0], &pf)
			if err != nil {
				return err
			}

			conflicts := workspace.Conflicts(results)
			if format == formatJSON {
				for _, cf := range conflicts {
					loggerFromContext(cmd.Context()).Warn("version conflict", "package", cf.Package, "versions", formatConflict(cf))
				}
				return c.writeLocks(output, workspace.Locks(results))
			}

			requires := 0
			for _, res := range results {
				requires += len(res.Requires)
				printInfo("%s %s", StyleHighlight.Render(res.Recipe.Name), StyleDim.Render(res.Recipe.Source))
				for _, ref := range res.Requires {
					printDetail("%s", ref)
				}
			}
			for _, cf := range conflicts {
				printWarning("%s pinned at several versions: %s", cf.Package, formatConflict(cf))
			}
			printNewline()
			printStats(len(results), requires, false)
			if len(results) > 1 {
				printNextStep("Build order", "stackrecipe workspace order "+args[0])
			}
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON locks to this file instead of stdout")

	return cmd
}

func (c *CLI) workspaceOrderCommand() *cobra.Command {
	var pf platformFlags

	cmd := &cobra.Command{
		Use:   "order <dir>",
		Short: "Print workspace recipes in build order",
		Long: `Print the workspace recipes so that every recipe follows the workspace
recipes it requires. The order depends on the platform because rules may add
requirements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := c.resolveWorkspace(cmd.Context(), args[0], &pf)
			if err != nil {
				return err
			}
			order, err := workspace.BuildOrder(results)
			if err != nil {
				return err
			}
			for i, name := range order {
				fmt.Fprintf(c.Out, "%s %s\n", StyleNumber.Render(fmt.Sprintf("%2d.", i+1)), name)
			}
			return nil
		},
	}

	pf.register(cmd)
	return cmd
}

func (c *CLI) workspaceGraphCommand() *cobra.Command {
	var (
		pf       platformFlags
		format   string
		output   string
		detailed bool
		rankDir  string
	)

	cmd := &cobra.Command{
		Use:   "graph <dir>",
		Short: "Render the workspace requirement graph",
		Long: `Render the requirement graph of every workspace recipe as Graphviz DOT,
SVG or JSON. Workspace recipes are filled boxes, external packages are dashed, and
edges added by a rule are dashed with the rule's condition as tooltip.`,
		Example: `  stackrecipe workspace graph . -s os=Linux > deps.dot
  stackrecipe workspace graph . -s os=Linux --format svg -o deps.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatDOT && format != formatSVG && format != formatJSON {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (use dot, svg or json)", format)
			}
			results, err := c.resolveWorkspace(cmd.Context(), args[0], &pf)
			if err != nil {
				return err
			}
			g, err := workspace.Graph(results)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case formatJSON:
				var buf bytes.Buffer
				if err := graphio.WriteJSON(g, &buf); err != nil {
					return err
				}
				data = buf.Bytes()
			case formatSVG:
				dot := nodelink.ToDOT(g, nodelink.Options{Detailed: detailed, RankDir: rankDir})
				if data, err = nodelink.RenderSVG(cmd.Context(), dot); err != nil {
					return err
				}
			default:
				data = []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed, RankDir: rankDir}))
			}

			if output == "" {
				_, err := c.Out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", output)
			}
			printSuccess("Rendered %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
			printFile(output)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions and sources in node labels")
	cmd.Flags().StringVar(&rankDir, "rankdir", "", "graph direction (default BT)")

	return cmd
}

// formatConflict renders "10.0.0 (c); 9.1.0 (a, b)" with versions sorted.
func formatConflict(cf workspace.Conflict) string {
	versions := make([]string, 0, len(cf.Versions))
	for v := range cf.Versions {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = fmt.Sprintf("%s (%s)", v, strings.Join(cf.Versions[v], ", "))
	}
	return strings.Join(parts, "; ")
}
