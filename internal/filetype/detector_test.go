package filetype

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func TestDetectReader(t *testing.T) {
	d := New()

	info, err := d.DetectReader(strings.NewReader(minimalPDF))
	require.NoError(t, err)
	assert.True(t, info.Supported)
	assert.Equal(t, "application/pdf", info.MIMEType)
	assert.Equal(t, ".pdf", info.Extension)

	info, err = d.DetectReader(strings.NewReader("just some words\n"))
	require.NoError(t, err)
	assert.False(t, info.Supported)
	assert.Contains(t, info.Description, "Unsupported")
}

func TestRequirePDF(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte(minimalPDF), 0o644))
	txt := filepath.Join(dir, "doc.txt.pdf")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))

	d := New()
	assert.NoError(t, d.RequirePDF(pdf))
	assert.ErrorIs(t, d.RequirePDF(txt), ErrNotPDF)
	assert.Error(t, d.RequirePDF(filepath.Join(dir, "missing.pdf")))
}
