package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/richtext/internal/doctree"
)

// CSVParser handles CSV files. The file becomes a single table whose first
// record is the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(filename)
	if len(records) == 0 {
		return doc, nil
	}

	table := doctree.New(doctree.KindTable)
	for i, record := range records {
		row := doctree.New(doctree.KindTableRow)
		if i == 0 {
			row.WithAttr(doctree.AttrHeader, "true")
		}
		for _, field := range record {
			cell := doctree.New(doctree.KindTableCell)
			if field = strings.TrimSpace(field); field != "" {
				cell.Append(textNode(field))
			}
			row.Append(cell)
		}
		table.Append(row)
	}
	return doc.Append(table), nil
}
