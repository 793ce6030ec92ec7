package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// run executes the CLI with args after resetting every flag to its default.
func run(t *testing.T, args ...string) string {
	t.Helper()
	reset := func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd)
	for _, c := range rootCmd.Commands() {
		reset(c)
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("articlectl %v: %v (stderr %q)", args, err, errOut.String())
	}
	return out.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSlug(t *testing.T) {
	if got := run(t, "slug", "Tips", "&", "Trik"); got != "tips-and-trik\n" {
		t.Errorf("slug = %q", got)
	}
	got := run(t, "slug", "--unique", "Intro", "Intro", "Intro 1")
	if want := "intro\nintro-1\nintro-1-1\n"; got != want {
		t.Errorf("slug --unique = %q, want %q", got, want)
	}
}

func TestOutline(t *testing.T) {
	path := writeFile(t, "post.md", "# Satu\n\n## Dua\n\n```\n# bukan judul\n```\n\n## Dua\n")

	got := run(t, "outline", path)
	want := "- Satu (#satu)\n  - Dua (#dua)\n  - Dua (#dua-1)\n"
	if got != want {
		t.Errorf("outline =\n%s\nwant\n%s", got, want)
	}

	var headings []struct {
		ID    string `json:"id"`
		Level int    `json:"level"`
	}
	if err := json.Unmarshal([]byte(run(t, "outline", "--json", path)), &headings); err != nil {
		t.Fatal(err)
	}
	if len(headings) != 3 || headings[2].ID != "dua-1" || headings[2].Level != 2 {
		t.Errorf("json outline = %+v", headings)
	}
}

func TestMetrics(t *testing.T) {
	path := writeFile(t, "post.md", "---\ntitle: Belajar\n---\nsatu dua tiga\n")

	got := run(t, "metrics", "--views", "1500", path)
	for _, want := range []string{"words:         4", "1 min read", "PT1M", "1.5K"} {
		if !strings.Contains(got, want) {
			t.Errorf("metrics output missing %q:\n%s", want, got)
		}
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(run(t, "metrics", "--json", "--title", "", path)), &m); err != nil {
		t.Fatal(err)
	}
	if m["words"] != float64(3) || m["views"] != "0" {
		t.Errorf("json metrics = %v", m)
	}
}

func TestConvert(t *testing.T) {
	path := writeFile(t, "catatan.txt", "Judul Catatan\n\nIsi paragraf pertama.\n")

	var blocks []map[string]any
	if err := json.Unmarshal([]byte(run(t, "convert", path)), &blocks); err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0]["type"] != "paragraph" {
		t.Fatalf("blocks = %v", blocks)
	}

	var meta struct {
		Title  string            `json:"title"`
		Slug   string            `json:"slug"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal([]byte(run(t, "convert", "--meta", path)), &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Title != "Judul Catatan" || meta.Slug != "judul-catatan" || len(meta.Blocks) != 1 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestRender(t *testing.T) {
	path := writeFile(t, "post.md", "## Latihan\n\nteks\n\n## Latihan\n")

	got := run(t, "render", path)
	for _, want := range []string{`id="latihan"`, `id="latihan-1"`} {
		if !strings.Contains(got, want) {
			t.Errorf("render output missing %q:\n%s", want, got)
		}
	}

	page := run(t, "render", "--page", "--site", "https://bimbel.example", path)
	for _, want := range []string{"<!doctype html>", "application/ld+json", "https://bimbel.example/articles/post"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRender_ConvertsImportedDocuments(t *testing.T) {
	path := writeFile(t, "materi.html", "<html><head><title>Materi</title></head><body><h2>Bab Satu</h2><p>isi</p></body></html>")

	got := run(t, "render", path)
	if !strings.Contains(got, `<h2 id="bab-satu">`) {
		t.Errorf("render output = %s", got)
	}
}
