package problem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	got, err := Load(writeFile(t, "Read two integers and print their sum.\n"))
	require.NoError(t, err)
	require.Equal(t, "Read two integers and print their sum.\n", got)
}

func TestLoadStripsBOM(t *testing.T) {
	got, err := Load(writeFile(t, "\xef\xbb\xbfZadanie: zsumuj liczby.\n"))
	require.NoError(t, err)
	require.Equal(t, "Zadanie: zsumuj liczby.\n", got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSourceUnavailable))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadEmpty(t *testing.T) {
	for _, body := range []string{"", "  \n\t\n", "\xef\xbb\xbf"} {
		_, err := Load(writeFile(t, body))
		require.ErrorIs(t, err, ErrSourceUnavailable, "body %q", body)
	}
}

func TestReadKeepsContentVerbatim(t *testing.T) {
	in := "line 1\r\n\n  indented\n"
	got, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, in, got)
}
