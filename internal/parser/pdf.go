package parser

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"unicode"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser imports the text layer of a PDF as paragraphs, one run per
// page. It reads with ledongthuc/pdf and can fall back to pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Result, error) {
	f, err := spool(r, "articlepipe-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := readPDFPages(f, f.Size)
	if (err != nil || blankPages(pages)) && p.FallbackPdftotext {
		pages, err = pdftotextPages(f.Name())
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	res := &Result{}
	for i, page := range pages {
		for _, para := range pageParagraphs(page) {
			b := paragraph(textSpan(para))
			b.Props = map[string]any{"page": i + 1}
			res.Blocks = append(res.Blocks, b)
		}
	}
	if len(res.Blocks) == 0 {
		return nil, errors.New("extract pdf text: no text layer")
	}

	// A short first line-like paragraph on page one reads as the title.
	if first := res.Blocks[0].Text(); len(res.Blocks) > 1 && looksLikeTitle(first) {
		res.Title = first
		res.Blocks = res.Blocks[1:]
	}
	res.finish(filename)
	return res, nil
}

func readPDFPages(ra io.ReaderAt, size int64) ([]string, error) {
	reader, err := pdflib.NewReader(ra, size)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}

func blankPages(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

// pageParagraphs splits a page on blank lines and joins wrapped lines,
// rejoining words hyphenated across a line break. Paragraphs that are
// only a page number are dropped.
func pageParagraphs(page string) []string {
	var out []string
	for _, chunk := range strings.Split(strings.ReplaceAll(page, "\r\n", "\n"), "\n\n") {
		var b strings.Builder
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if b.Len() > 0 {
				if prev := b.String(); strings.HasSuffix(prev, "-") && startsLower(line) {
					b.Reset()
					b.WriteString(strings.TrimSuffix(prev, "-"))
				} else {
					b.WriteByte(' ')
				}
			}
			b.WriteString(line)
		}
		para := strings.Join(strings.Fields(b.String()), " ")
		if para == "" || isPageNumber(para) {
			continue
		}
		out = append(out, para)
	}
	return out
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

func isPageNumber(s string) bool {
	s = strings.TrimSpace(strings.Trim(s, "-–— "))
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func looksLikeTitle(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > 120 {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	return !strings.ContainsRune(".,;:", last)
}
