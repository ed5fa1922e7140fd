package tail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logwarden/internal/ban"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(content)
	require.NoError(t, err)
}

func TestPoll_ReturnsOnlyAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	writeFile(t, path, "old line 1\nold line 2\n")

	tl := New()
	tl.Prime(path)

	lines, err := tl.Poll(path)
	require.NoError(t, err)
	assert.Empty(t, lines, "no growth, nothing to read")

	appendFile(t, path, "new line 1\nnew line 2\n")
	lines, err = tl.Poll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"new line 1", "new line 2"}, lines)

	lines, err = tl.Poll(path)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPoll_WithoutPrimeReadsFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	writeFile(t, path, "a\r\nb\n")

	lines, err := New().Poll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestPoll_RotationResetsCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	writeFile(t, path, strings.Repeat("x", 100)+"\n")

	tl := New()
	tl.Prime(path)
	require.Equal(t, int64(101), tl.Cursor(path).Offset)

	// Rotated: replaced by a shorter file.
	writeFile(t, path, "fresh\n")
	lines, err := tl.Poll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, lines)
	assert.Equal(t, int64(6), tl.Cursor(path).Offset)
}

func TestPoll_MissingFileKeepsCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	writeFile(t, path, "one\n")

	tl := New()
	tl.Prime(path)
	require.NoError(t, os.Remove(path))

	lines, err := tl.Poll(path)
	require.Error(t, err)
	assert.Nil(t, lines)
	assert.Equal(t, ban.ErrCodeSourceRead, ban.CodeOf(err))
	assert.True(t, IsNotExist(err))
	assert.Equal(t, int64(4), tl.Cursor(path).Offset)
}

func TestPoll_InvalidUTF8IsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	writeFile(t, path, "ok \xff\xfe line\nnext\n")

	lines, err := New().Poll(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ok "))
	assert.True(t, strings.HasSuffix(lines[0], " line"))
	assert.Contains(t, lines[0], "�")
	assert.Equal(t, "next", lines[1])
}

func TestPrime_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")
	tl := New()
	assert.Equal(t, int64(0), tl.Prime(path))

	writeFile(t, path, "created later\n")
	lines, err := tl.Poll(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"created later"}, lines)
}

func TestReadLast(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	writeFile(t, a, "a1\na2\na3\na4\n")
	writeFile(t, b, "b1\nb2")

	lines, errs := ReadLast([]string{a, filepath.Join(dir, "missing.log"), b}, 2)
	assert.Equal(t, []string{"a3", "a4", "b1", "b2"}, lines)
	require.Len(t, errs, 1)
	assert.Equal(t, ban.ErrCodeSourceRead, ban.CodeOf(errs[0]))
}

func TestReadLast_MoreThanAvailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	writeFile(t, path, "only\n")

	lines, errs := ReadLast([]string{path}, 5000)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"only"}, lines)
}

func TestReadLast_SpansChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	var sb strings.Builder
	for i := 0; i < 20000; i++ {
		sb.WriteString("0123456789abcdef\n")
	}
	sb.WriteString("last-but-one\nlast\n")
	writeFile(t, path, sb.String())

	lines, errs := ReadLast([]string{path}, 3)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"0123456789abcdef", "last-but-one", "last"}, lines)

	lines, errs = ReadLast([]string{path}, 10000)
	assert.Empty(t, errs)
	assert.Len(t, lines, 10000)
	assert.Equal(t, "last", lines[len(lines)-1])
}

func TestReadLast_EmptyAndZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	writeFile(t, path, "")

	lines, errs := ReadLast([]string{path}, 10)
	assert.Empty(t, errs)
	assert.Empty(t, lines)

	writeFile(t, path, "x\n")
	lines, errs = ReadLast([]string{path}, 0)
	assert.Empty(t, errs)
	assert.Empty(t, lines)
}
