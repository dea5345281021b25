package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML string) []byte {
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

const docXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestDocxText(t *testing.T) {
	data := buildDocx(t, docXML)

	text, err := DocxText(bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestDocxTextLineBreaks(t *testing.T) {
	xml := `<w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p></w:body></w:document>`
	data := buildDocx(t, xml)

	text, err := DocxText(bytes.NewReader(data), int64(len(data)))

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestDocxTextNotAnArchive(t *testing.T) {
	data := []byte("plain text, not a zip")

	_, err := DocxText(bytes.NewReader(data), int64(len(data)))

	assert.Error(t, err)
}

func TestDocxTextMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = DocxText(bytes.NewReader(buf.Bytes()), int64(buf.Len()))

	assert.ErrorContains(t, err, "word/document.xml")
}
