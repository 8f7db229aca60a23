package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hotelchat/backend/internal/storage/models"
)

// extractSpreadsheet serializes every sheet to text, one segment per sheet
// in workbook order. The header row leads each segment and rows are joined
// cell by cell so tabular content stays readable for retrieval.
func extractSpreadsheet(path string) ([]models.DocumentSegment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	segments := make([]models.DocumentSegment, 0, len(sheets))

	for i, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		segments = append(segments, models.DocumentSegment{
			Index: i,
			Label: sheet,
			Text:  serializeRows(sheet, rows),
		})
	}

	return segments, nil
}

// serializeRows renders a sheet as "<sheet name>: header | ... " followed by
// one line per data row. Blank rows are skipped; a sheet with no non-blank
// cells serializes to "".
func serializeRows(sheet string, rows [][]string) string {
	var lines []string

	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if trimmed := strings.TrimSpace(cell); trimmed != "" {
				cells = append(cells, trimmed)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " | "))
		}
	}

	if len(lines) == 0 {
		return ""
	}

	return sheet + ":\n" + strings.Join(lines, "\n")
}
