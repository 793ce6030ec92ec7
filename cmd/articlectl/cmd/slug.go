package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/outline"
)

var slugUnique bool

var slugCmd = &cobra.Command{
	Use:   "slug <text...>",
	Short: "Print the slug of a heading",
	Long: `Print the slug the site derives from text.

With --unique every argument is a separate heading of one document and
the printed ids are de-duplicated the way a rendered page does it.

Examples:
  articlectl slug "Tips & Trik Belajar"
  articlectl slug --unique Intro Intro "Intro 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !slugUnique {
			fmt.Fprintln(out, outline.Slugify(strings.Join(args, " ")))
			return nil
		}
		s := outline.NewSlugger()
		for _, text := range args {
			fmt.Fprintln(out, s.Unique(text))
		}
		return nil
	},
}

func init() {
	slugCmd.Flags().BoolVar(&slugUnique, "unique", false, "treat each argument as a heading and de-duplicate ids")
	rootCmd.AddCommand(slugCmd)
}
