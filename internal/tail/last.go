package tail

import (
	"bytes"
	"io"
	"os"
)

// chunkSize is how much ReadLast reads per step when scanning backwards.
const chunkSize = 64 * 1024

// ReadLast returns the last n lines of every file, files in the given order.
// Files that are missing or unreadable are skipped; their SOURCE_READ errors
// are returned alongside the lines of the files that could be read.
func ReadLast(paths []string, n int) ([]string, []error) {
	var (
		lines []string
		errs  []error
	)
	for _, path := range paths {
		l, err := readLast(path, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, l...)
	}
	return lines, errs
}

// readLast reads path backwards in chunks until it holds more than n lines,
// so large logs are never read in full.
func readLast(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sourceError(path, "cannot open log file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, sourceError(path, "cannot stat log file", err)
	}
	if info.IsDir() {
		return nil, sourceError(path, "log path is a directory", nil)
	}
	if n <= 0 || info.Size() == 0 {
		return nil, nil
	}

	var buf []byte
	pos := info.Size()
	for pos > 0 {
		step := int64(chunkSize)
		if pos < step {
			step = pos
		}
		pos -= step

		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, pos); err != nil && err != io.EOF {
			return nil, sourceError(path, "cannot read log file", err)
		}
		buf = append(chunk, buf...)

		if bytes.Count(bytes.TrimRight(buf, "\n"), []byte{'\n'}) >= n {
			break
		}
	}

	text, err := decode(bytes.NewReader(buf))
	if err != nil {
		return nil, sourceError(path, "cannot decode log file", err)
	}
	lines := splitLines(text)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
