package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/readtime"
)

var (
	metricsTitle   string
	metricsSummary string
	metricsViews   int64
	metricsJSON    bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <file>",
	Short: "Print word count, reading time and view label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bf, err := loadBody(cmd, args[0])
		if err != nil {
			return err
		}
		title, summary := bf.Title, bf.Summary
		if cmd.Flags().Changed("title") {
			title = metricsTitle
		}
		if cmd.Flags().Changed("summary") {
			summary = metricsSummary
		}
		m := readtime.Compute(title, summary, bf.Body)

		out := cmd.OutOrStdout()
		if metricsJSON {
			return json.NewEncoder(out).Encode(map[string]any{
				"words":         m.Words,
				"minutes":       m.Minutes,
				"reading_time":  m.Label(),
				"time_required": m.ISODuration(),
				"views":         readtime.FormatViews(metricsViews),
			})
		}
		fmt.Fprintf(out, "words:         %d\n", m.Words)
		fmt.Fprintf(out, "reading time:  %s\n", m.Label())
		fmt.Fprintf(out, "time required: %s\n", m.ISODuration())
		fmt.Fprintf(out, "views:         %s\n", readtime.FormatViews(metricsViews))
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsTitle, "title", "", "article title (counted as words)")
	metricsCmd.Flags().StringVar(&metricsSummary, "summary", "", "article summary (counted as words)")
	metricsCmd.Flags().Int64Var(&metricsViews, "views", 0, "view count to format")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}
