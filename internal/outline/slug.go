package outline

import (
	"regexp"
	"strconv"
	"strings"
)

// transliteration maps accented Latin letters (and a few separators) one
// rune to one rune. Runes not listed are left for the strip step.
var transliteration = buildTransliteration(map[rune]string{
	'a': "àáâäæãåāăą",
	'c': "çćč",
	'd': "đď",
	'e': "èéêëēėęě",
	'g': "ğǵ",
	'h': "ḧ",
	'i': "îïíīįì",
	'l': "ł",
	'm': "ḿ",
	'n': "ñńǹň",
	'o': "ôöòóœøōõő",
	'p': "ṕ",
	'r': "ŕř",
	's': "ßśšşș",
	't': "ťț",
	'u': "ûüùúūǘůűų",
	'w': "ẃ",
	'x': "ẍ",
	'y': "ÿý",
	'z': "žźż",
	'-': "·/_,:;",
})

func buildTransliteration(groups map[rune]string) map[rune]rune {
	m := make(map[rune]rune)
	for to, from := range groups {
		for _, r := range from {
			m[r] = to
		}
	}
	return m
}

var (
	whitespaceRe = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)
	nonWordRe    = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	multiDashRe  = regexp.MustCompile(`-{2,}`)
)

// fallbackSlug is used when a heading's text slugs to nothing.
const fallbackSlug = "section"

// Slugify converts heading text to its base anchor slug. The step order
// is fixed; anchors already published depend on it.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = strings.Map(func(r rune) rune {
		if to, ok := transliteration[r]; ok {
			return to
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, "&", "-and-")
	s = nonWordRe.ReplaceAllString(s, "")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugger issues document-unique slugs. Use one per document render.
type Slugger struct {
	counts map[string]int
	issued map[string]struct{}
}

func NewSlugger() *Slugger {
	return &Slugger{
		counts: make(map[string]int),
		issued: make(map[string]struct{}),
	}
}

// Unique returns the slug for text. The first occurrence of a base slug is
// returned bare; repeats get -1, -2, ... in order of appearance.
func (s *Slugger) Unique(text string) string {
	base := Slugify(text)
	if base == "" {
		base = fallbackSlug
	}

	n, seen := s.counts[base]
	if !seen {
		s.counts[base] = 0
		if _, taken := s.issued[base]; !taken {
			s.issued[base] = struct{}{}
			return base
		}
	}
	for {
		n++
		candidate := base + "-" + strconv.Itoa(n)
		if _, taken := s.issued[candidate]; taken {
			continue
		}
		s.counts[base] = n
		s.issued[candidate] = struct{}{}
		return candidate
	}
}
