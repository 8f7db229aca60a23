package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelchat/backend/internal/storage/models"
)

// writePDF builds a minimal uncompressed PDF with one content stream per
// page. An empty text draws a rectangle instead, mimicking a scanned
// image-only page.
func writePDF(t *testing.T, path string, pageTexts []string) {
	t.Helper()

	n := len(pageTexts)
	fontNum := 3 + n

	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
	}
	for i := range pageTexts {
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontNum, fontNum+1+i))
	}
	objs = append(objs, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for _, text := range pageTexts {
		content := "0 0 100 100 re f"
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractPDFPerPageSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotel-guide.pdf")
	writePDF(t, path, []string{
		"Welcome to the Grand Palm Hotel.",
		"",
		"Rooms start at 180 euros per night.",
		"",
		"Breakfast is served from 7 to 10.",
	})

	segments, err := extractPDF(path)
	require.NoError(t, err)
	require.Len(t, segments, 5)

	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, fmt.Sprintf("page %d", i+1), seg.Label)
	}
	assert.Equal(t, "Welcome to the Grand Palm Hotel.", segments[0].Text)
	assert.Empty(t, segments[1].Text)
	assert.Equal(t, "Rooms start at 180 euros per night.", segments[2].Text)
	assert.Empty(t, segments[3].Text)
	assert.Equal(t, "Breakfast is served from 7 to 10.", segments[4].Text)
}

func TestIngestPDFKeepsImageOnlyPageSlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmp-upload")
	writePDF(t, path, []string{
		"Check-in begins at 3 pm.",
		"",
		"Pets are welcome in garden rooms.",
	})

	ing := NewIngestor(nil)
	record, err := ing.Ingest(path, "policies.pdf")
	require.NoError(t, err)

	assert.Equal(t, models.SourceKindPDF, record.SourceKind)
	require.Len(t, record.Segments, 3)
	assert.Equal(t, 2, record.TextSegmentCount())
	assert.Empty(t, record.Segments[1].Text)
}
