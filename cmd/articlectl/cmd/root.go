package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/parser"
)

var (
	verbose bool
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "articlectl",
	Short: "Offline tools for article bodies",
	Long: `articlectl works on article bodies without a running server.

A body file may be stored block JSON (.json), markdown or plain text,
which is read as legacy markdown, or any importable document (.html,
.docx, .pdf, .csv), which is converted to blocks first. Use "-" to read
a body from stdin.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug output to stderr")
}

// bodyFile is an article body loaded from disk.
type bodyFile struct {
	Title   string
	Summary string
	Body    string
}

// loadBody reads path as a stored article body, converting importable
// documents to block JSON.
func loadBody(cmd *cobra.Command, path string) (*bodyFile, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &bodyFile{Body: string(data)}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &bodyFile{Body: string(data)}, nil
	case ".md", ".markdown", ".txt":
		fm, src, err := parser.ParseFrontMatter(data)
		if err != nil {
			src = data
		}
		summary := fm.Summary
		if summary == "" {
			summary = fm.Description
		}
		return &bodyFile{Title: fm.Title, Summary: summary, Body: string(src)}, nil
	}

	res, err := convertFile(path, data)
	if err != nil {
		return nil, err
	}
	body, err := blockdoc.Encode(res.Blocks)
	if err != nil {
		return nil, err
	}
	return &bodyFile{Title: res.Title, Summary: res.Summary, Body: body}, nil
}

func convertFile(path string, data []byte) (*parser.Result, error) {
	p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(strings.NewReader(string(data)), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	log.Debug("converted document", "path", path, "blocks", len(res.Blocks))
	return res, nil
}
