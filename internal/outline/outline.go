package outline

import (
	"regexp"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

// Heading is one table-of-contents entry.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

var legacyHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Extract decodes body and returns its headings in document order.
func Extract(body string) []Heading {
	return FromBody(blockdoc.Decode(body))
}

// FromBody returns the headings of an already decoded body. Each call uses
// its own Slugger, so IDs depend only on this body's headings.
func FromBody(body blockdoc.Body) []Heading {
	slugs := NewSlugger()
	var out []Heading
	add := func(text string, level int) {
		out = append(out, Heading{
			ID:    slugs.Unique(text),
			Text:  text,
			Level: level,
		})
	}

	switch b := body.(type) {
	case blockdoc.Document:
		for _, block := range b.Blocks {
			if block.Type != blockdoc.TypeHeading {
				continue
			}
			text := strings.TrimSpace(block.Text())
			if text == "" {
				continue
			}
			add(text, block.HeadingLevel())
		}
	case blockdoc.LegacyText:
		scanLegacy(b.Source, add)
	}
	return out
}

// scanLegacy reports "#"-prefixed lines outside fenced code blocks.
func scanLegacy(src string, add func(text string, level int)) {
	var fence string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if marker, info := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
				continue
			case marker[0] == fence[0] && len(marker) >= len(fence) && strings.TrimSpace(info) == "":
				fence = ""
				continue
			}
		}
		if fence != "" {
			continue
		}

		m := legacyHeadingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		add(text, len(m[1]))
	}
}

// fenceMarker splits a fence line into its ``` or ~~~ run and the info
// string after it. marker is "" when the line is not a fence.
func fenceMarker(line string) (marker, info string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return "", ""
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return "", ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return "", ""
	}
	return trimmed[:n], trimmed[n:]
}
