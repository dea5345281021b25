package validation

import (
	"strings"
)

// DefaultMaxFilenameLength bounds normalized filenames.
const DefaultMaxFilenameLength = 100

// fallbackBase replaces an empty base name (all-symbol or empty input)
// so storage keys never end up with a degenerate path segment.
const fallbackBase = "file"

// NormalizeFilename maps an arbitrary user-supplied name to a
// storage-safe name: every character outside [A-Za-z0-9.] becomes "_",
// the result is lower-cased, and the base (non-extension) portion is
// truncated so the whole name fits DefaultMaxFilenameLength with the
// extension preserved. Pure and idempotent.
func NormalizeFilename(name string) string {
	return NormalizeFilenameMax(name, DefaultMaxFilenameLength)
}

// NormalizeFilenameMax is NormalizeFilename with an explicit length bound.
// The result is always at most maxLength characters, whatever the input.
func NormalizeFilenameMax(name string, maxLength int) string {
	if maxLength < 1 {
		maxLength = DefaultMaxFilenameLength
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	safe := b.String()

	base, ext := splitExt(safe)
	if base == "" {
		base = fallbackBase
	}

	if ext == "" {
		if len(base) > maxLength {
			base = base[:maxLength]
		}
		return base
	}

	if len(base)+1+len(ext) <= maxLength {
		return base + "." + ext
	}

	maxBase := maxLength - len(ext) - 1
	if maxBase < 1 {
		// Extension alone exceeds the bound; cut the whole name instead
		// of producing a negative slice.
		whole := base + "." + ext
		return whole[:maxLength]
	}

	return base[:maxBase] + "." + ext
}

// FileExtension returns the lower-cased extension after the last dot,
// without the dot. Empty when the name has no dot or ends with one.
func FileExtension(name string) string {
	_, ext := splitExt(name)
	return strings.ToLower(ext)
}

func splitExt(name string) (base, ext string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}
