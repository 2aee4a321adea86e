// Package loader reads a Holly source file off disk into the byte stream
// the lexer consumes.
package loader

import (
	"fmt"
	"os"
)

// LoadSource reads path and returns its contents plus a filename to use
// in diagnostics. The lexer is byte-oriented and does not validate UTF-8;
// this function performs no decoding, only a null-termination check that
// mirrors how a C front end would hand off a buffer.
func LoadSource(path string) (src string, filename string, err error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a CLI-provided source file
	if err != nil {
		return "", "", fmt.Errorf("failed to read source file %q: %w", path, err)
	}
	for i, b := range data {
		if b == 0 {
			return "", "", fmt.Errorf("source file %q contains an embedded null byte at offset %d", path, i)
		}
	}
	return string(data), path, nil
}
