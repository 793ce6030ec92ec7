package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/outline"
)

var outlineJSON bool

var outlineCmd = &cobra.Command{
	Use:   "outline <file>",
	Short: "Print the heading outline of a body",
	Long: `Print the headings of a body with the ids the site assigns them.

Examples:
  articlectl outline post.md
  articlectl outline body.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bf, err := loadBody(cmd, args[0])
		if err != nil {
			return err
		}
		headings := outline.Extract(bf.Body)

		out := cmd.OutOrStdout()
		if outlineJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(headings)
		}
		for _, h := range headings {
			fmt.Fprintf(out, "%s- %s (#%s)\n", strings.Repeat("  ", h.Level-1), h.Text, h.ID)
		}
		return nil
	},
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "print headings as JSON")
	rootCmd.AddCommand(outlineCmd)
}
