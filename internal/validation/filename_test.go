package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces and parens", "Report (final).docx", "report__final_.docx"},
		{"already safe", "notes.txt", "notes.txt"},
		{"uppercase", "README.MD", "readme.md"},
		{"unicode", "résumé.pdf", "r_sum_.pdf"},
		{"no extension", "makefile", "makefile"},
		{"multiple dots", "archive.tar.gz", "archive.tar.gz"},
		{"only symbols with extension", "???.pdf", "___.pdf"},
		{"extension only", ".docx", "file.docx"},
		{"empty", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilename(tt.in))
		})
	}
}

func TestNormalizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 150) + ".pdf"

	got := NormalizeFilename(long)

	assert.Len(t, got, DefaultMaxFilenameLength)
	assert.True(t, strings.HasSuffix(got, ".pdf"), "extension must survive truncation: %q", got)
}

func TestNormalizeFilenameLengthBound(t *testing.T) {
	inputs := []string{
		strings.Repeat("a", 500),
		strings.Repeat("a", 500) + ".docx",
		"short.pdf",
		"." + strings.Repeat("x", 300), // extension longer than the bound
		strings.Repeat(".", 200),
		strings.Repeat("日本語", 100) + ".txt",
		"",
	}

	for _, in := range inputs {
		got := NormalizeFilename(in)
		assert.LessOrEqual(t, len(got), DefaultMaxFilenameLength, "input %q", in)
	}
}

func TestNormalizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"Report (final).docx",
		strings.Repeat("a", 500) + ".docx",
		"." + strings.Repeat("x", 300),
		"no-extension-at-all",
		"",
		"MiXeD Case NAME.PDF",
		"..double..dots..csv",
	}

	for _, in := range inputs {
		once := NormalizeFilename(in)
		twice := NormalizeFilename(once)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeFilenameMaxCustomBound(t *testing.T) {
	got := NormalizeFilenameMax("some very long document name.txt", 20)

	assert.LessOrEqual(t, len(got), 20)
	assert.True(t, strings.HasSuffix(got, ".txt"))
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "docx", FileExtension("Report.DOCX"))
	assert.Equal(t, "gz", FileExtension("archive.tar.gz"))
	assert.Equal(t, "", FileExtension("makefile"))
	assert.Equal(t, "", FileExtension("trailing."))
	assert.Equal(t, "", FileExtension(""))
}
