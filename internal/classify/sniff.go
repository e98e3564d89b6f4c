package classify

import (
	"errors"
	"io"
	"os"
)

// DefaultHeaderBytes covers the longest recognized signature with room for
// leading whitespace before an XML declaration.
const DefaultHeaderBytes = 64

// SniffHeader reads up to size leading bytes of the file at path. A short
// file yields a short header, not an error. Callers treat a read failure as
// recoverable: classification degrades to extension-only.
func SniffHeader(path string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultHeaderBytes
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header := make([]byte, size)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return header[:n], nil
}
