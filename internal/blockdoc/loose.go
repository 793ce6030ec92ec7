package blockdoc

import "encoding/json"

// Stored bodies come from editors and old imports, so node decoding is
// loose: a field of the wrong JSON type reads as its zero value and a
// non-object element becomes an untyped block that renderers skip.

// UnmarshalJSON decodes a block without failing on field types.
func (b *Block) UnmarshalJSON(data []byte) error {
	*b = Block{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	b.ID = looseString(fields["id"])
	b.Type = looseString(fields["type"])
	b.Props = looseObject(fields["props"])
	if raw, ok := fields["content"]; ok {
		if err := b.Content.UnmarshalJSON(raw); err != nil {
			b.Content = Content{}
		}
	}
	var children []json.RawMessage
	if json.Unmarshal(fields["children"], &children) == nil && len(children) > 0 {
		b.Children = make([]Block, len(children))
		for i, raw := range children {
			_ = b.Children[i].UnmarshalJSON(raw)
		}
	}
	return nil
}

// UnmarshalJSON decodes a span without failing on field types.
func (s *Inline) UnmarshalJSON(data []byte) error {
	*s = Inline{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	s.Type = looseString(fields["type"])
	s.Text = looseString(fields["text"])
	s.Href = looseString(fields["href"])
	s.Styles = looseObject(fields["styles"])
	if raw, ok := fields["content"]; ok {
		s.Content = looseInlines(raw)
	}
	return nil
}

func looseInlines(data []byte) []Inline {
	var elems []json.RawMessage
	if json.Unmarshal(data, &elems) != nil {
		return nil
	}
	spans := make([]Inline, len(elems))
	for i, raw := range elems {
		_ = spans[i].UnmarshalJSON(raw)
	}
	return spans
}

func looseString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func looseObject(raw json.RawMessage) map[string]any {
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}
