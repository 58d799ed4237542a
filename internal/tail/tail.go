// Package tail reads the last lines of a file without scanning it from the start.
package tail

import (
	"io"
	"os"
	"strings"
)

// BlockSize is how many bytes are read per step when walking backward from EOF.
const BlockSize = 64 * 1024

// Lines returns the last n non-empty lines of the file at path, in file order.
// Both "\n" and "\r\n" endings are accepted. Any I/O failure yields an empty slice.
func Lines(path string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	f, err := os.Open(path)
	if err != nil {
		return []string{}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return []string{}
	}

	pos := info.Size()
	var buf []byte
	var lines []string
	// The first line of buf may be cut mid-way, so read until one extra line is complete.
	for pos > 0 && len(lines) <= n+1 {
		size := int64(BlockSize)
		if pos < size {
			size = pos
		}
		pos -= size

		block := make([]byte, size)
		if _, err := f.ReadAt(block, pos); err != nil && err != io.EOF {
			return []string{}
		}
		buf = append(block, buf...)
		lines = split(string(buf))
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if lines == nil {
		return []string{}
	}
	return lines
}

// split breaks text on "\n" or "\r\n" and drops empty lines.
func split(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
