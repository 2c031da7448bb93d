package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/airobotics/docqa/internal/domain"
)

func extractPDF(name string, content []byte) ([]domain.ContentUnit, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var units []domain.ContentUnit
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			units = append(units, domain.NewContentUnit(name, i, domain.ContentKindText, 0, text))
		}

		for ordinal, table := range pageTables(page) {
			units = append(units, domain.NewContentUnit(name, i, domain.ContentKindTable, ordinal, table))
		}

		for ordinal, img := range pageImages(page) {
			units = append(units, domain.NewContentUnit(name, i, domain.ContentKindImage, ordinal, img))
		}
	}

	return units, nil
}

// pageTables reconstructs tabular blocks from the page's text rows.
func pageTables(page pdf.Page) []string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	spanRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		spans := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			spans = append(spans, t.S)
		}
		spanRows = append(spanRows, spans)
	}

	return tableBlocks(spanRows)
}

// tableBlocks applies the table heuristic to rows of text spans: a run
// of two or more consecutive rows, each carrying multiple spans, is
// treated as a tabular block. The payload is the tab-joined,
// newline-separated reconstruction of the block.
func tableBlocks(rows [][]string) []string {
	var blocks []string
	var block []string

	flush := func() {
		if len(block) > 1 {
			blocks = append(blocks, strings.Join(block, "\n"))
		}
		block = nil
	}

	for _, spans := range rows {
		if len(spans) < 2 {
			flush()
			continue
		}
		block = append(block, strings.Join(spans, "\t"))
	}
	flush()

	return blocks
}

// pageImages extracts embedded image XObjects, base64-encoded so the
// payload stays a transportable string.
func pageImages(page pdf.Page) []string {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil
	}

	var images []string
	for _, key := range xobjects.Keys() {
		obj := xobjects.Key(key)
		if obj.IsNull() || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		reader := obj.Reader()
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil || len(data) == 0 {
			continue
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}
	return images
}
