package search

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much of a file is inspected for NUL bytes
const sniffSize = 8 * 1024

// newTolerantReader decodes UTF-8 with invalid sequences replaced by U+FFFD.
// A byte order mark switches decoding to UTF-16LE/BE (or strips a UTF-8 BOM).
func newTolerantReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// hasUTF16BOM reports whether data starts with a UTF-16 byte order mark
func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

// looksBinary checks the head of a file for NUL bytes. UTF-16 text is
// full of NULs, so a UTF-16 BOM exempts the file.
func looksBinary(head []byte) bool {
	if hasUTF16BOM(head) {
		return false
	}
	return bytes.IndexByte(head, 0) >= 0
}

// openText wraps r in a buffered tolerant decoder after the binary sniff
func openText(r io.Reader) (*bufio.Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	if looksBinary(head) {
		return nil, ErrBinaryContent
	}
	return bufio.NewReaderSize(newTolerantReader(br), 64*1024), nil
}
