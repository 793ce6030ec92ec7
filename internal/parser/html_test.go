package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

func TestHTMLParser_ArticleContent(t *testing.T) {
	input := `<html><head><title>Page</title><meta name="description" content="Desc"></head>` +
		`<body><nav>menu</nav><article><h1>Main</h1><p>Hello <a href="/x">link</a></p>` +
		`<h2>Sub</h2><ul><li>a</li><li>b<ul><li>c</li></ul></li></ul>` +
		`<pre><code class="language-go">x := 1</code></pre></article></body></html>`

	p := &HTMLParser{}
	res, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Page" || res.Summary != "Desc" {
		t.Errorf("title/summary = %q/%q", res.Title, res.Summary)
	}

	want := []string{
		blockdoc.TypeHeading,
		blockdoc.TypeParagraph,
		blockdoc.TypeHeading,
		blockdoc.TypeBulletListItem,
		blockdoc.TypeBulletListItem,
		blockdoc.TypeCodeBlock,
	}
	if len(res.Blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(res.Blocks), len(want), res.Blocks)
	}
	for i, typ := range want {
		if res.Blocks[i].Type != typ {
			t.Errorf("block %d type = %q, want %q", i, res.Blocks[i].Type, typ)
		}
	}

	link := res.Blocks[1].Content.Inline[1]
	if link.Type != blockdoc.InlineLink || link.Href != "/x" {
		t.Errorf("link = %+v", link)
	}
	if kids := res.Blocks[4].Children; len(kids) != 1 || kids[0].Text() != "c" {
		t.Errorf("nested list = %+v", kids)
	}
	if res.Blocks[5].Prop("language") != "go" || res.Blocks[5].Content.Raw != "x := 1" {
		t.Errorf("code block = %+v", res.Blocks[5])
	}
}

func TestHTMLParser_LeadingHeadingWithoutTitleTag(t *testing.T) {
	input := `<body><h1>Only Heading</h1><p>Some <strong>strong</strong> words</p></body>`
	p := &HTMLParser{}
	res, err := p.Parse(strings.NewReader(input), "x.html")
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Only Heading" {
		t.Errorf("title = %q", res.Title)
	}
	if len(res.Blocks) != 1 {
		t.Fatalf("got %d blocks", len(res.Blocks))
	}
	spans := res.Blocks[0].Content.Inline
	if len(spans) != 3 || spans[1].Styles["bold"] != true {
		t.Errorf("spans = %+v", spans)
	}
}

func TestHTMLParser_FigureAndCheckbox(t *testing.T) {
	input := `<body><figure><img src="/a.png" alt="alt"><figcaption>Caption</figcaption></figure>` +
		`<ul><li><input type="checkbox" checked> done</li></ul></body>`
	p := &HTMLParser{}
	res, err := p.Parse(strings.NewReader(input), "f.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("got %d blocks: %+v", len(res.Blocks), res.Blocks)
	}
	if res.Blocks[0].Type != blockdoc.TypeImage || res.Blocks[0].Prop("caption") != "Caption" {
		t.Errorf("figure = %+v", res.Blocks[0])
	}
	item := res.Blocks[1]
	if item.Type != blockdoc.TypeCheckListItem || item.Props["checked"] != true || item.Text() != "done" {
		t.Errorf("check item = %+v", item)
	}
}
