package judge

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// Equal compares program output leniently: runs of spaces, tabs, line breaks,
// blank lines and trailing whitespace are insignificant, every other
// character (including letter case) must match.
func Equal(actual, expected string) bool {
	a := strings.Fields(actual)
	e := strings.Fields(expected)
	if len(a) != len(e) {
		return false
	}
	for i := range a {
		if a[i] != e[i] {
			return false
		}
	}
	return true
}

// UnifiedDiff renders the change from expected to actual.
func UnifiedDiff(name, actual, expected string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected/" + name,
		ToFile:   "actual/" + name,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

// DiffStat counts added, changed and deleted lines in a unified diff.
func DiffStat(unified string) (added, changed, deleted int, err error) {
	if strings.TrimSpace(unified) == "" {
		return 0, 0, 0, nil
	}
	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return 0, 0, 0, err
	}
	st := fd.Stat()
	return int(st.Added), int(st.Changed), int(st.Deleted), nil
}
