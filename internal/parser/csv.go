package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

// CSVParser imports a CSV file as a single table block. The first record
// is kept as the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	res := &Result{}
	if len(records) > 0 {
		rows := make([][][]blockdoc.Inline, 0, len(records))
		for _, rec := range records {
			cells := make([][]blockdoc.Inline, len(rec))
			for i, cell := range rec {
				cells[i] = []blockdoc.Inline{}
				if cell = strings.TrimSpace(cell); cell != "" {
					cells[i] = append(cells[i], textSpan(cell))
				}
			}
			rows = append(rows, cells)
		}
		res.Blocks = []blockdoc.Block{tableBlock(rows)}
	}
	res.finish(filename)
	return res, nil
}
