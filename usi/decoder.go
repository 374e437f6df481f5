package usi

import (
	"bytes"
	"strings"
)

// LineDecoder turns an arbitrarily chunked byte stream into complete lines.
// Each line is trimmed of surrounding whitespace and handed to the consumer
// unless it is empty. Bytes after the last newline are kept until a later
// Write completes them.
//
// LineDecoder implements io.Writer so it can sit at the end of an io.Copy.
// It is not safe for concurrent use.
type LineDecoder struct {
	buf  []byte
	emit func(line string)
}

func NewLineDecoder(emit func(line string)) *LineDecoder {
	return &LineDecoder{emit: emit}
}

func (d *LineDecoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	start := 0
	for {
		idx := bytes.IndexByte(d.buf[start:], '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(d.buf[start : start+idx]))
		start += idx + 1
		if line != "" {
			d.emit(line)
		}
	}
	d.buf = append(d.buf[:0], d.buf[start:]...)
	return len(p), nil
}

// Buffered returns the number of bytes held back waiting for a newline.
func (d *LineDecoder) Buffered() int {
	return len(d.buf)
}
