package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/outline"
	"github.com/dgallion1/articlepipe/internal/render"
	"github.com/dgallion1/articlepipe/internal/store"
)

var (
	renderPage   bool
	renderMath   bool
	renderSite   string
	renderTOCMin int
	renderViews  int64
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a body to HTML with heading anchors",
	Long: `Render a body the way the article page does and print the HTML
fragment, or with --page the complete article page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bf, err := loadBody(cmd, args[0])
		if err != nil {
			return err
		}
		r := render.New(render.Options{Math: renderMath, TOCMinHeadings: renderTOCMin})
		res, err := r.Render(render.Input{Title: bf.Title, Summary: bf.Summary, Body: bf.Body, Views: renderViews})
		if err != nil {
			return err
		}
		for _, h := range res.Unmatched {
			log.Warn("outline entry without rendered heading", "id", h.ID, "text", h.Text)
		}

		out := cmd.OutOrStdout()
		if !renderPage {
			fmt.Fprintln(out, res.HTML)
			return nil
		}

		title := bf.Title
		if title == "" {
			base := filepath.Base(args[0])
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		now := time.Now().UTC()
		a := &store.Article{
			Slug:        outline.Slugify(title),
			Title:       title,
			Summary:     bf.Summary,
			Body:        bf.Body,
			Status:      store.StatusPublished,
			ViewCount:   renderViews,
			PublishedAt: &now,
			UpdatedAt:   now,
		}
		pages, err := render.NewPageRenderer(render.Site{Name: "Preview", URL: renderSite})
		if err != nil {
			return err
		}
		return pages.Write(out, a, res)
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "print the full article page")
	renderCmd.Flags().BoolVar(&renderMath, "math", true, "render $...$ math as MathML in markdown bodies")
	renderCmd.Flags().StringVar(&renderSite, "site", "http://localhost:8090", "site URL used in the page's structured data")
	renderCmd.Flags().IntVar(&renderTOCMin, "toc-min", 3, "minimum headings for a table of contents")
	renderCmd.Flags().Int64Var(&renderViews, "views", 0, "view count shown on the page")
	rootCmd.AddCommand(renderCmd)
}
