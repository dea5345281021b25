package validation

import (
	"fmt"
	"mime/multipart"
	"strings"
)

// ValidateUpload checks the basic preconditions for an uploaded document:
// a non-empty body within the size limit and a recognizable extension.
// Format support is decided downstream by the retrieval service, so no
// extension allowlist is enforced here.
func ValidateUpload(header *multipart.FileHeader, maxSize int64) error {
	if header == nil {
		return fmt.Errorf("no file provided")
	}

	if header.Size <= 0 {
		return fmt.Errorf("file is empty")
	}

	if header.Size > maxSize {
		maxMB := maxSize / (1 << 20)
		return fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	if FileExtension(header.Filename) == "" {
		return fmt.Errorf("file has no extension: %s", header.Filename)
	}

	// Reject names that are nothing but an extension marker
	if strings.TrimPrefix(header.Filename, ".") == "" {
		return fmt.Errorf("invalid filename")
	}

	return nil
}
