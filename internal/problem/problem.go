// Package problem loads the natural-language problem statement.
package problem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrSourceUnavailable is returned when the statement is missing, unreadable
// or empty. It is the only fatal error of a run.
var ErrSourceUnavailable = errors.New("problem description unavailable")

// Load reads the statement at path as UTF-8, dropping a leading byte order mark.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	text, err := Read(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, path, err)
	}
	return text, nil
}

// Read decodes a statement from r.
func Read(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("empty statement")
	}
	return string(data), nil
}
