package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/booklets/internal/imposition"
	"github.com/local/booklets/internal/paper"
)

// writeTestPDF writes an A4 portrait document of n pages; page i shows "P<i>".
func writeTestPDF(t *testing.T, path string, n int) {
	t.Helper()
	var buf bytes.Buffer
	offsets := []int{0}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i := 0; i < n; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595.28 841.89] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := fmt.Sprintf("BT /F1 96 Tf 200 400 Td (P%d) Tj ET", i+1)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets))
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func sideTexts(t *testing.T, path string) []string {
	t.Helper()
	doc, err := fitz.New(path)
	require.NoError(t, err)
	defer doc.Close()
	texts := make([]string, doc.NumPage())
	for i := range texts {
		texts[i], err = doc.Text(i)
		require.NoError(t, err)
	}
	return texts
}

func composeTestBooklet(t *testing.T, pages int, opts imposition.Options, size paper.Size) (Result, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "story.pdf")
	writeTestPDF(t, in, pages)

	opts.PageCount = pages
	sides, err := imposition.Plan(opts)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "story_output.pdf")
	res, err := NewPDFComposer(dir).Compose(context.Background(), Job{Input: in, Output: out, Sides: sides, Paper: size})
	require.NoError(t, err)
	return res, out
}

func TestPDFComposerPlacesPages(t *testing.T) {
	res, out := composeTestBooklet(t, 3, imposition.Options{BookletSize: 4}, paper.A4)
	assert.Equal(t, 2, res.Sides)
	assert.Equal(t, 1, res.Sheets)
	assert.Equal(t, 0, res.Rotated)
	assert.InDelta(t, 0.7071, res.Scale, 0.001)

	n, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	texts := sideTexts(t, out)
	// Side 1 is (blank, P1); side 2 is (P2, P3).
	assert.Contains(t, texts[0], "P1")
	assert.NotContains(t, texts[0], "P2")
	assert.NotContains(t, texts[0], "P3")
	require.Contains(t, texts[1], "P2")
	require.Contains(t, texts[1], "P3")
	assert.Less(t, strings.Index(texts[1], "P2"), strings.Index(texts[1], "P3"))
}

func TestPDFComposerLandscapeSheets(t *testing.T) {
	for _, name := range paper.Names() {
		size, err := paper.Lookup(name)
		require.NoError(t, err)
		t.Run(name, func(t *testing.T) {
			_, out := composeTestBooklet(t, 3, imposition.Options{BookletSize: 4}, size)
			dims, err := api.PageDimsFile(out)
			require.NoError(t, err)
			require.Len(t, dims, 2)
			for _, d := range dims {
				assert.InDelta(t, size.Height, d.Width, 1)
				assert.InDelta(t, size.Width, d.Height, 1)
			}
		})
	}
}

func TestPDFComposerLongEdge(t *testing.T) {
	res, out := composeTestBooklet(t, 8, imposition.Options{BookletSize: 8, LongEdge: true}, paper.A4)
	assert.Equal(t, 4, res.Sides)
	assert.Equal(t, 2, res.Rotated)

	texts := sideTexts(t, out)
	require.Len(t, texts, 4)
	// Outer front of an 8-page booklet carries the last and first page.
	assert.Contains(t, texts[0], "P8")
	assert.Contains(t, texts[0], "P1")
}

func TestPDFComposerRejectsOutOfRangePlan(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "short.pdf")
	writeTestPDF(t, in, 2)
	sides, err := imposition.Plan(imposition.Options{PageCount: 4, BookletSize: 4})
	require.NoError(t, err)

	_, err = NewPDFComposer(dir).Compose(context.Background(), Job{Input: in, Output: filepath.Join(dir, "o.pdf"), Sides: sides, Paper: paper.A4})
	assert.ErrorContains(t, err, "plan references page 4")
}
