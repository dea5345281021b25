package service

import (
	"github.com/parchly/parchly/internal/validation"
)

// Strategy selects how an uploaded document reaches the retrieval
// service: either it fetches the stored blob itself, or we extract the
// text locally first.
type Strategy int

const (
	StrategyPassThrough Strategy = iota
	StrategyRichText
)

func (s Strategy) String() string {
	switch s {
	case StrategyRichText:
		return "rich-text"
	default:
		return "pass-through"
	}
}

// richTextExtensions is the closed table of formats that need local text
// extraction before processing. Everything else passes through and the
// retrieval service decides whether it supports the format.
var richTextExtensions = map[string]bool{
	"docx": true,
}

// SelectStrategy routes a filename to an ingestion strategy by its
// extension (case-insensitive, taken after the last dot). Total: any
// input, including empty or dotless names, yields a strategy.
func SelectStrategy(filename string) Strategy {
	if richTextExtensions[validation.FileExtension(filename)] {
		return StrategyRichText
	}
	return StrategyPassThrough
}
