package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const maxOriginalNameLength = 120

// StoredFilename builds a collision-resistant on-disk name in the form
// <unix millis>_<uuid>_<sanitized original name>.
func StoredFilename(original string, now time.Time) string {
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), uuid.NewString(), SanitizeFilename(original))
}

// SanitizeFilename strips directory components and characters that are
// unsafe in a path segment.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	clean := strings.Trim(b.String(), ".")
	if clean == "" {
		clean = "file"
	}
	if runes := []rune(clean); len(runes) > maxOriginalNameLength {
		clean = string(runes[len(runes)-maxOriginalNameLength:])
	}
	return clean
}
