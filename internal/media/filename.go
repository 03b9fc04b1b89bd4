package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ErrMissingPersonName is returned when the person name is empty, whitespace
// only, or loses every character to sanitization.
var ErrMissingPersonName = errors.New("person name is required")

// legacyCapturePattern matches filenames produced by the capture client:
// Prefix_<Name>_<date>_<epoch>.<ext>. The name portion may itself contain
// underscores.
var legacyCapturePattern = regexp.MustCompile(`^[A-Za-z0-9]+_(.+)_\d{4}-\d{2}-\d{2}_\d+\.[A-Za-z0-9]+$`)

// SanitizePersonName strips everything outside letters, digits and
// whitespace, then collapses whitespace runs to single underscores.
func SanitizePersonName(personName string) (string, error) {
	if strings.TrimSpace(personName) == "" {
		return "", ErrMissingPersonName
	}

	var b strings.Builder
	for _, r := range personName {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	sanitized := strings.Join(strings.Fields(b.String()), "_")
	if sanitized == "" {
		return "", ErrMissingPersonName
	}
	return sanitized, nil
}

// FormatStoredName composes the canonical stored filename:
// {sanitized}_{YYYY-MM-DD}_{HH-MM-SS}{ext}, with the extension taken verbatim
// from the original filename. Granularity is one second, so two uploads for
// the same person within the same second collide; callers accept that.
func FormatStoredName(personName, originalFilename string, now time.Time) (string, error) {
	sanitized, err := SanitizePersonName(personName)
	if err != nil {
		return "", err
	}

	date := now.Format("2006-01-02")
	clock := now.Format("15-04-05")
	ext := filepath.Ext(originalFilename)

	return fmt.Sprintf("%s_%s_%s%s", sanitized, date, clock, ext), nil
}

// PersonNameFromCapture extracts the person name embedded in a legacy capture
// filename. Uploads recognized this way keep their original filename.
func PersonNameFromCapture(filename string) (string, bool) {
	m := legacyCapturePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}
