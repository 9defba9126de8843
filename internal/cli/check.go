package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
	"github.com/matzehuels/stackrecipe/pkg/style"
)

// checkCommand creates the check command for validating descriptors.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate style and recipe descriptors",
		Long: `Load each descriptor and report malformed documents, unknown options and
duplicate requirements.

Files named recipe.{hcl,toml} or <target>.recipe.{hcl,toml} are recipe
descriptors; other .toml, .yaml and .yml files are style descriptors.`,
		Example: `  stackrecipe check .cmake-format.yaml recipe.hcl`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			failed := 0
			for _, path := range args {
				summary, err := checkFile(path)
				if err != nil {
					failed++
					logger.Debug("check failed", "file", path, "code", errors.GetCode(err))
					printError("%s: %v", path, err)
					continue
				}
				printSuccess("%s: %s", path, summary)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d descriptors failed", failed, len(args))
			}
			return nil
		},
	}
}

// checkFile loads path as a recipe or style descriptor and summarizes it.
func checkFile(path string) (string, error) {
	if recipe.IsRecipeFile(filepath.Base(path)) {
		recipes, err := recipe.Load(path)
		if err != nil {
			return "", err
		}
		return plural(len(recipes), "recipe"), nil
	}

	s, err := style.Load(path)
	if err != nil {
		return "", err
	}
	n := 0
	for _, section := range s.Explicit() {
		n += len(section)
	}
	return plural(n, "option") + " set", nil
}
