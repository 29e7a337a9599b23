package judge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Case is one fixture: an input file and the expected output next to it.
type Case struct {
	Name         string // file stem, e.g. "b" for b.in
	File         string // input file name, e.g. "b.in"
	InputPath    string
	ExpectedPath string
}

// Discover lists the fixtures in dir: every regular file ending in inExt
// paired with the same stem ending in outExt. Cases are ordered by input file
// name so the first reported failure is reproducible.
func Discover(dir, inExt, outExt string) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	cases := make([]Case, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != inExt {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), inExt)
		cases = append(cases, Case{
			Name:         stem,
			File:         e.Name(),
			InputPath:    filepath.Join(dir, e.Name()),
			ExpectedPath: filepath.Join(dir, stem+outExt),
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].File < cases[j].File })
	return cases, nil
}
