package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

var convertMeta bool

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document to block JSON",
	Long: `Import a markdown, HTML, DOCX, PDF, CSV or text file and print the
block JSON that would be stored as its body.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		res, err := convertFile(args[0], data)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if !convertMeta {
			return enc.Encode(res.Blocks)
		}

		var published string
		if !res.PublishedAt.IsZero() {
			published = res.PublishedAt.Format(time.RFC3339)
		}
		return enc.Encode(struct {
			Title       string           `json:"title"`
			Slug        string           `json:"slug"`
			Summary     string           `json:"summary,omitempty"`
			Category    string           `json:"category,omitempty"`
			Tags        []string         `json:"tags,omitempty"`
			CoverURL    string           `json:"cover_url,omitempty"`
			Author      string           `json:"author,omitempty"`
			Draft       bool             `json:"draft,omitempty"`
			PublishedAt string           `json:"published_at,omitempty"`
			Blocks      []blockdoc.Block `json:"blocks"`
		}{
			Title:       res.Title,
			Slug:        res.Slug,
			Summary:     res.Summary,
			Category:    res.Category,
			Tags:        res.Tags,
			CoverURL:    res.CoverURL,
			Author:      res.Author,
			Draft:       res.Draft,
			PublishedAt: published,
			Blocks:      res.Blocks,
		})
	},
}

func init() {
	convertCmd.Flags().BoolVar(&convertMeta, "meta", false, "wrap blocks with the derived article fields")
	rootCmd.AddCommand(convertCmd)
}
