package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/style"
)

// styleCommand groups the style settings commands.
func (c *CLI) styleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Inspect and create formatter style settings",
	}

	cmd.AddCommand(c.styleShowCommand())
	cmd.AddCommand(c.styleInitCommand())

	return cmd
}

// applyAssignments applies --set overrides in order.
func applyAssignments(s *style.Settings, assignments []string) (*style.Settings, error) {
	for _, a := range assignments {
		next, err := s.WithAssignment(a)
		if err != nil {
			return nil, err
		}
		s = next
	}
	return s, nil
}

func (c *CLI) styleShowCommand() *cobra.Command {
	var (
		sets     []string
		format   string
		explicit bool
	)

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the effective style settings",
		Long: `Load a style descriptor and print every option with its effective value.
Options the file leaves out show their defaults; --explicit limits the
output to the options the file sets.`,
		Example: `  stackrecipe style show .cmake-format.yaml
  stackrecipe style show style.toml --set format.line_width=120 --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := style.Load(path)
			if err != nil {
				return err
			}
			if s, err = applyAssignments(s, sets); err != nil {
				return err
			}

			out := style.Format(format)
			if out == "" {
				p, err := style.DetectParser(path)
				if err != nil {
					return err
				}
				out = p.Format()
			}
			loggerFromContext(cmd.Context()).Debug("style loaded", "file", path, "overrides", len(sets))
			return style.Encode(c.Out, s, out, style.EncodeOptions{IncludeDefaults: !explicit})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "override an option, section.key=value (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: toml or yaml (default: same as input)")
	cmd.Flags().BoolVar(&explicit, "explicit", false, "print only options the file sets")

	return cmd
}

func (c *CLI) styleInitCommand() *cobra.Command {
	var (
		sets  []string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write a style descriptor with every option spelled out",
		Long: `Write a canonical style descriptor listing every recognized option at its
default value. The serialization follows the file extension.`,
		Example: `  stackrecipe style init .cmake-format.yaml
  stackrecipe style init style.toml --set format.tab_size=4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			p, err := style.DetectParser(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
			}

			s, err := applyAssignments(style.Defaults(), sets)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
			}
			if err := style.Encode(f, s, p.Format(), style.EncodeOptions{IncludeDefaults: true}); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			printSuccess("Wrote %s style settings", p.Format())
			printFile(path)
			printNextStep("Validate it", "stackrecipe check "+filepath.Base(path))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "override an option, section.key=value (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
