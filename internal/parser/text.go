package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

// TextParser turns blank-line separated paragraphs into paragraph blocks.
// A paragraph whose every line starts with a list marker becomes list
// items.
type TextParser struct{}

var (
	bulletLineRe   = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	numberedLineRe = regexp.MustCompile(`^\d{1,3}[.)]\s+(.+)$`)
)

func (p *TextParser) Parse(r io.Reader, filename string) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		paragraphs [][]string
		current    []string
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	if len(paragraphs) > 1 && len(paragraphs[0]) == 1 && looksLikeTitle(strings.TrimSpace(paragraphs[0][0])) {
		res.Title = paragraphs[0][0]
		paragraphs = paragraphs[1:]
	}
	for _, lines := range paragraphs {
		res.Blocks = append(res.Blocks, textBlocks(lines)...)
	}
	res.finish(filename)
	return res, nil
}

func textBlocks(lines []string) []blockdoc.Block {
	for _, list := range []struct {
		re  *regexp.Regexp
		typ string
	}{
		{bulletLineRe, blockdoc.TypeBulletListItem},
		{numberedLineRe, blockdoc.TypeNumberedListItem},
	} {
		items := make([]blockdoc.Block, 0, len(lines))
		for _, line := range lines {
			m := list.re.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				break
			}
			items = append(items, blockdoc.Block{Type: list.typ, Content: blockdoc.InlineContent(textSpan(m[1]))})
		}
		if len(items) == len(lines) {
			return items
		}
	}
	return []blockdoc.Block{paragraph(textSpan(strings.Join(lines, "\n")))}
}
