package blockdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Block types understood by the renderers and importers.
const (
	TypeHeading          = "heading"
	TypeParagraph        = "paragraph"
	TypeBulletListItem   = "bulletListItem"
	TypeNumberedListItem = "numberedListItem"
	TypeCheckListItem    = "checkListItem"
	TypeCodeBlock        = "codeBlock"
	TypeImage            = "image"
	TypeQuote            = "quote"
	TypeTable            = "table"
)

// Inline span types.
const (
	InlineText = "text"
	InlineLink = "link"
)

// Block is one node of a block document.
type Block struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Content  Content        `json:"content,omitzero"`
	Children []Block        `json:"children,omitempty"`
}

// Inline is a span of inline content. Link spans carry their visible text
// in Content, not in Text.
type Inline struct {
	Type    string         `json:"type,omitempty"`
	Text    string         `json:"text,omitempty"`
	Href    string         `json:"href,omitempty"`
	Styles  map[string]any `json:"styles,omitempty"`
	Content []Inline       `json:"content,omitempty"`
}

// ContentKind tells which field of Content is populated.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentInline
	ContentRaw
	ContentObject
)

// Content is a block's content: inline spans, a raw string (code blocks)
// or an opaque object such as table content.
type Content struct {
	Kind   ContentKind
	Inline []Inline
	Raw    string
	Object json.RawMessage
}

// InlineContent wraps spans as block content.
func InlineContent(spans ...Inline) Content {
	return Content{Kind: ContentInline, Inline: spans}
}

// RawContent wraps a raw string as block content.
func RawContent(s string) Content {
	return Content{Kind: ContentRaw, Raw: s}
}

func (c Content) IsZero() bool {
	return c.Kind == ContentNone
}

// UnmarshalJSON accepts a string (raw), an array (inline spans) or an
// object. Any other value leaves the content empty.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*c = Content{}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Kind, c.Raw = ContentRaw, s
	case '[':
		c.Kind, c.Inline = ContentInline, looseInlines(data)
	case '{':
		c.Kind = ContentObject
		c.Object = append(json.RawMessage(nil), data...)
	}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ContentInline:
		if c.Inline == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.Inline)
	case ContentRaw:
		return json.Marshal(c.Raw)
	case ContentObject:
		if len(c.Object) == 0 {
			return []byte("null"), nil
		}
		return c.Object, nil
	default:
		return []byte("null"), nil
	}
}

// Text flattens the block's own content (children excluded).
func (b Block) Text() string {
	switch b.Content.Kind {
	case ContentInline:
		return FlattenInline(b.Content.Inline)
	case ContentRaw:
		return b.Content.Raw
	}
	return ""
}

// Prop returns a prop as a string, or "" when absent.
func (b Block) Prop(key string) string {
	v, ok := b.Props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// PropInt coerces a numeric or numeric-string prop to an int.
func (b Block) PropInt(key string) (int, bool) {
	switch t := b.Props[key].(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}

// HeadingLevel is the heading's level prop coerced into 1..6; 1 when absent.
func (b Block) HeadingLevel() int {
	level, ok := b.PropInt("level")
	if !ok {
		return 1
	}
	return min(max(level, 1), 6)
}

// FlattenInline concatenates the visible text of spans with no separator.
// Link spans contribute their nested content, never the href.
func FlattenInline(spans []Inline) string {
	var sb strings.Builder
	for _, s := range spans {
		writeInline(&sb, s)
	}
	return sb.String()
}

func writeInline(sb *strings.Builder, s Inline) {
	switch s.Type {
	case InlineLink:
		for _, c := range s.Content {
			writeInline(sb, c)
		}
	default:
		sb.WriteString(s.Text)
	}
}

// Walk visits blocks depth-first in document order.
func Walk(blocks []Block, fn func(b *Block, depth int)) {
	var walk func(bs []Block, depth int)
	walk = func(bs []Block, depth int) {
		for i := range bs {
			fn(&bs[i], depth)
			walk(bs[i].Children, depth+1)
		}
	}
	walk(blocks, 0)
}

// Encode serializes blocks to the JSON stored as an article body.
func Encode(blocks []Block) (string, error) {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", fmt.Errorf("encode blocks: %w", err)
	}
	return string(data), nil
}
