package infrastructure

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText([]byte("Aoife Byrne\nSoftware Engineer"), "txt")
	require.NoError(t, err)
	assert.Equal(t, "Aoife Byrne\nSoftware Engineer", text)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText([]byte("anything"), "odt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "odt")
}

func TestExtractTextDOCX(t *testing.T) {
	doc := buildDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Aoife Byrne</w:t></w:r></w:p>
    <w:p><w:r><w:t>Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := ExtractText(doc, "docx")
	require.NoError(t, err)
	assert.Equal(t, "Aoife Byrne\nSenior Engineer", text)
}

func TestExtractTextDOCXWithoutDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractText(buf.Bytes(), "docx")
	assert.ErrorIs(t, err, ErrExtractionFailure)
}

func TestExtractTextCorruptDOCX(t *testing.T) {
	_, err := ExtractText([]byte("not a zip archive"), "docx")
	assert.ErrorIs(t, err, ErrExtractionFailure)
}

func TestExtractTextCorruptPDF(t *testing.T) {
	_, err := ExtractText([]byte("%PDF-1.4 truncated garbage"), "pdf")
	assert.ErrorIs(t, err, ErrExtractionFailure)
}
