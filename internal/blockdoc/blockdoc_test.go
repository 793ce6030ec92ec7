package blockdoc

import (
	"strings"
	"testing"
)

func TestDecode_BlockArray(t *testing.T) {
	body := `[{"id":"a","type":"heading","props":{"level":2},"content":[{"type":"text","text":"Intro","styles":{}}]},
{"type":"codeBlock","props":{"language":"go"},"content":"fmt.Println(1)"}]`

	doc, ok := Decode(body).(Document)
	if !ok {
		t.Fatalf("expected Document, got %T", Decode(body))
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(doc.Blocks))
	}
	if got := doc.Blocks[0].Text(); got != "Intro" {
		t.Errorf("expected heading text %q, got %q", "Intro", got)
	}
	if lvl, ok := doc.Blocks[0].PropInt("level"); !ok || lvl != 2 {
		t.Errorf("expected level 2, got %d (ok=%v)", lvl, ok)
	}
	if doc.Blocks[1].Content.Kind != ContentRaw {
		t.Errorf("expected raw content for code block, got kind %d", doc.Blocks[1].Content.Kind)
	}
	if got := doc.Blocks[1].Prop("language"); got != "go" {
		t.Errorf("expected language %q, got %q", "go", got)
	}
}

func TestDecode_FallsBackToLegacy(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"markdown", "# Title\n\nSome text"},
		{"malformed json", `[{"type":"heading",`},
		{"json object", `{"type":"heading"}`},
		{"json null", "null"},
		{"json string", `"hello"`},
		{"trailing garbage", `[{"type":"heading"}] extra`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Decode(tt.body)
			legacy, ok := b.(LegacyText)
			if !ok {
				t.Fatalf("expected LegacyText, got %T", b)
			}
			if legacy.Source != tt.body {
				t.Errorf("expected source to be preserved, got %q", legacy.Source)
			}
			if b.Encoding() != EncodingLegacy {
				t.Errorf("expected encoding %q, got %q", EncodingLegacy, b.Encoding())
			}
		})
	}
}

func TestDecode_LooseNodesStayDocument(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		types []string
		texts []string
	}{
		{"array of numbers", "[1, 2, 3]", []string{"", "", ""}, []string{"", "", ""}},
		{"numeric content", `[{"type":"paragraph","content":42}]`, []string{"paragraph"}, []string{""}},
		{"numeric span text", `[{"type":"paragraph","content":[{"type":"text","text":7},{"type":"text","text":"ok"}]}]`, []string{"paragraph"}, []string{"ok"}},
		{"numeric href", `[{"type":"paragraph","content":[{"type":"link","href":5,"content":[{"type":"text","text":"tautan"}]}]}]`, []string{"paragraph"}, []string{"tautan"}},
		{"non-object span", `[{"type":"heading","content":["x",{"type":"text","text":"Judul"}]}]`, []string{"heading"}, []string{"Judul"}},
		{"numeric type", `[{"type":9,"content":"kode"}]`, []string{""}, []string{"kode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, ok := Decode(tt.body).(Document)
			if !ok {
				t.Fatalf("expected Document, got %T", Decode(tt.body))
			}
			if len(doc.Blocks) != len(tt.types) {
				t.Fatalf("expected %d blocks, got %d", len(tt.types), len(doc.Blocks))
			}
			for i, b := range doc.Blocks {
				if b.Type != tt.types[i] || b.Text() != tt.texts[i] {
					t.Errorf("block %d = (%q, %q), want (%q, %q)", i, b.Type, b.Text(), tt.types[i], tt.texts[i])
				}
			}
		})
	}
}

func TestDecode_LooseChildrenAndProps(t *testing.T) {
	doc := Decode(`[{"type":"paragraph","props":"wide","children":[{"type":"heading","props":{"level":"2"},"content":[{"type":"text","text":"Anak"}]},true]}]`).(Document)
	b := doc.Blocks[0]
	if b.Props != nil {
		t.Errorf("expected non-object props to be dropped, got %v", b.Props)
	}
	if len(b.Children) != 2 || b.Children[0].HeadingLevel() != 2 || b.Children[0].Text() != "Anak" || b.Children[1].Type != "" {
		t.Errorf("unexpected children %+v", b.Children)
	}
}

func TestDecode_EmptyArrayIsDocument(t *testing.T) {
	doc, ok := Decode("  []  ").(Document)
	if !ok {
		t.Fatal("expected empty array to decode as a Document")
	}
	if doc.Blocks == nil || len(doc.Blocks) != 0 {
		t.Errorf("expected empty non-nil blocks, got %#v", doc.Blocks)
	}
}

func TestDecode_ObjectContentKept(t *testing.T) {
	body := `[{"type":"table","content":{"type":"tableContent","rows":[]}}]`
	doc, ok := Decode(body).(Document)
	if !ok {
		t.Fatal("expected Document")
	}
	if doc.Blocks[0].Content.Kind != ContentObject {
		t.Errorf("expected object content, got kind %d", doc.Blocks[0].Content.Kind)
	}
	if doc.Blocks[0].Text() != "" {
		t.Errorf("expected table to contribute no text, got %q", doc.Blocks[0].Text())
	}
}

func TestFlattenInline_LinkUsesNestedText(t *testing.T) {
	spans := []Inline{
		{Type: "text", Text: "See "},
		{Type: "link", Href: "https://example.com", Content: []Inline{{Text: "Read More"}}},
		{Type: "mention", Text: "!"},
		{Type: "emoji"},
	}
	got := FlattenInline(spans)
	if got != "See Read More!" {
		t.Errorf("expected %q, got %q", "See Read More!", got)
	}
	if strings.Contains(got, "example.com") {
		t.Error("link href must not leak into flattened text")
	}
}

func TestPropInt_Coercion(t *testing.T) {
	tests := []struct {
		props  map[string]any
		want   int
		wantOK bool
	}{
		{map[string]any{"level": float64(3)}, 3, true},
		{map[string]any{"level": "2"}, 2, true},
		{map[string]any{"level": " 1 "}, 1, true},
		{map[string]any{"level": "big"}, 0, false},
		{map[string]any{}, 0, false},
		{nil, 0, false},
	}
	for i, tt := range tests {
		b := Block{Props: tt.props}
		got, ok := b.PropInt("level")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("case %d: expected (%d,%v), got (%d,%v)", i, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	blocks := []Block{
		{Type: TypeHeading, Props: map[string]any{"level": 1}, Content: InlineContent(Inline{Type: InlineText, Text: "Hi"})},
		{Type: TypeCodeBlock, Content: RawContent("x := 1")},
		{Type: TypeImage, Props: map[string]any{"url": "/a.png"}},
	}
	body, err := Encode(blocks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, `"content":null`) {
		t.Errorf("expected empty content to be omitted, got %s", body)
	}
	doc, ok := Decode(body).(Document)
	if !ok {
		t.Fatalf("expected encoded body to decode as Document, body=%s", body)
	}
	if doc.Blocks[0].Text() != "Hi" || doc.Blocks[1].Text() != "x := 1" {
		t.Errorf("unexpected texts %q %q", doc.Blocks[0].Text(), doc.Blocks[1].Text())
	}
}

func TestEncode_NilIsEmptyArray(t *testing.T) {
	body, err := Encode(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "[]" {
		t.Errorf("expected %q, got %q", "[]", body)
	}
}

func TestWalk_DepthFirst(t *testing.T) {
	blocks := []Block{
		{Type: "a", Children: []Block{{Type: "a1"}, {Type: "a2", Children: []Block{{Type: "a2x"}}}}},
		{Type: "b"},
	}
	var order []string
	Walk(blocks, func(b *Block, depth int) {
		order = append(order, strings.Repeat(">", depth)+b.Type)
	})
	want := "a,>a1,>a2,>>a2x,b"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
