package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		filename string
		want     Strategy
	}{
		{"report.docx", StrategyRichText},
		{"REPORT.DOCX", StrategyRichText},
		{"Report (final).docx", StrategyRichText},
		{"paper.pdf", StrategyPassThrough},
		{"notes.txt", StrategyPassThrough},
		{"data.csv", StrategyPassThrough},
		{"weird.xyz123", StrategyPassThrough},
		{"no-extension", StrategyPassThrough},
		{"trailing.", StrategyPassThrough},
		{"", StrategyPassThrough},
		{"archive.tar.gz", StrategyPassThrough},
		{"doc.docx.bak", StrategyPassThrough}, // only the last extension counts
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.filename))
		})
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "rich-text", StrategyRichText.String())
	assert.Equal(t, "pass-through", StrategyPassThrough.String())
}
