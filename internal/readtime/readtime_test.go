package readtime

import (
	"strings"
	"testing"
)

func TestMinutes(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{50, 1},
		{199, 1},
		{200, 1},
		{201, 1},
		{299, 1},
		{300, 2},
		{301, 2},
		{499, 2},
		{500, 3},
		{1000, 5},
		{-4, 1},
	}
	for _, tt := range tests {
		if got := Minutes(tt.words); got != tt.want {
			t.Errorf("Minutes(%d): expected %d, got %d", tt.words, tt.want, got)
		}
	}
}

func TestCompute_EmptyBody(t *testing.T) {
	m := Compute("", "", "")
	if m.Words != 0 || m.Minutes != 1 {
		t.Errorf("expected 0 words / 1 minute, got %+v", m)
	}
}

func TestCompute_LegacyCountsTitleSummaryAndBody(t *testing.T) {
	m := Compute("Belajar Pecahan", "Ringkasan  singkat", "# Intro\n\nSatu dua\ttiga\n")
	// 2 + 2 + ("#", "Intro", "Satu", "dua", "tiga")
	if m.Words != 9 {
		t.Errorf("expected 9 words, got %d", m.Words)
	}
}

func TestCompute_BlockDocumentIncludesChildrenAndCode(t *testing.T) {
	body := `[
	{"type":"heading","props":{"level":1},"content":[{"type":"text","text":"Judul"}]},
	{"type":"paragraph","content":[{"type":"text","text":"Satu "},{"type":"link","href":"https://a.test","content":[{"type":"text","text":"dua tiga"}]}]},
	{"type":"bulletListItem","content":[{"type":"text","text":"a"}],"children":[{"type":"bulletListItem","content":[{"type":"text","text":"b c"}]}]},
	{"type":"codeBlock","content":"x := 1"},
	{"type":"image","props":{"url":"/img.png"}}
	]`
	m := Compute("", "", body)
	// 1 + 3 + 1 + 2 + 3
	if m.Words != 10 {
		t.Errorf("expected 10 words, got %d", m.Words)
	}
}

func TestCompute_LongBody(t *testing.T) {
	body := strings.TrimSpace(strings.Repeat("kata ", 610))
	m := Compute("", "", body)
	if m.Words != 610 || m.Minutes != 3 {
		t.Errorf("expected 610 words / 3 minutes, got %+v", m)
	}
	if m.ISODuration() != "PT3M" {
		t.Errorf("expected PT3M, got %q", m.ISODuration())
	}
	if m.Label() != "3 min read" {
		t.Errorf("expected %q, got %q", "3 min read", m.Label())
	}
}

func TestFormatViews(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{12345, "12.3K"},
		{999_999, "1000.0K"},
		{1_000_000, "1.0M"},
		{2_300_000, "2.3M"},
	}
	for _, tt := range tests {
		if got := FormatViews(tt.n); got != tt.want {
			t.Errorf("FormatViews(%d): expected %q, got %q", tt.n, tt.want, got)
		}
	}
}
