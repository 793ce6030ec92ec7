// Package readtime estimates word counts and reading time for articles.
package readtime

import (
	"strconv"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// Metrics are derived per render and never stored.
type Metrics struct {
	Words   int `json:"words"`
	Minutes int `json:"minutes"`
}

// Compute decodes body and counts title, summary and body words.
func Compute(title, summary, body string) Metrics {
	return ComputeBody(title, summary, blockdoc.Decode(body))
}

func ComputeBody(title, summary string, body blockdoc.Body) Metrics {
	words := countWords(title) + countWords(summary)
	switch b := body.(type) {
	case blockdoc.Document:
		blockdoc.Walk(b.Blocks, func(block *blockdoc.Block, _ int) {
			words += countWords(block.Text())
		})
	case blockdoc.LegacyText:
		words += countWords(b.Source)
	}
	return Metrics{Words: words, Minutes: Minutes(words)}
}

// Minutes rounds words/WordsPerMinute half up, with a floor of one minute.
func Minutes(words int) int {
	if words <= 0 {
		return 1
	}
	// integer form of floor(words/wpm + 0.5)
	m := (2*words + WordsPerMinute) / (2 * WordsPerMinute)
	return max(m, 1)
}

// ISODuration is the schema.org timeRequired value, e.g. "PT3M".
func (m Metrics) ISODuration() string {
	return "PT" + strconv.Itoa(m.Minutes) + "M"
}

// Label is the card text, e.g. "3 min read".
func (m Metrics) Label() string {
	return strconv.Itoa(m.Minutes) + " min read"
}

// FormatViews renders a view count in compact K/M notation.
func FormatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1e6, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1e3, 'f', 1, 64) + "K"
	}
	return strconv.FormatInt(n, 10)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}
