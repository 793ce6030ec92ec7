package blockdoc

import (
	"encoding/json"
	"strings"
)

// Encoding names the two stored body formats.
type Encoding string

const (
	EncodingBlocks Encoding = "blocks"
	EncodingLegacy Encoding = "legacy"
)

// Body is a decoded article body: either a Document or LegacyText.
type Body interface {
	Encoding() Encoding
	isBody()
}

// Document is a body that decoded as a block array.
type Document struct {
	Blocks []Block
}

// LegacyText is a body kept as freeform markdown.
type LegacyText struct {
	Source string
}

func (Document) Encoding() Encoding   { return EncodingBlocks }
func (LegacyText) Encoding() Encoding { return EncodingLegacy }
func (Document) isBody()              {}
func (LegacyText) isBody()            {}

// Decode classifies a stored body. A body that parses as a JSON array is a
// Document, with each element decoded loosely; anything else, including
// valid JSON that is not an array, is LegacyText. Decode never fails.
func Decode(body string) Body {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "[") {
		return LegacyText{Source: body}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
		return LegacyText{Source: body}
	}
	blocks := make([]Block, len(elems))
	for i, raw := range elems {
		_ = blocks[i].UnmarshalJSON(raw)
	}
	return Document{Blocks: blocks}
}
