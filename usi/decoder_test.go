package usi

import (
	"testing"

	"github.com/matryer/is"
)

func decodeChunks(chunks ...string) []string {
	var lines []string
	d := NewLineDecoder(func(l string) { lines = append(lines, l) })
	for _, c := range chunks {
		d.Write([]byte(c))
	}
	return lines
}

func TestLineDecoderSplits(t *testing.T) {
	is := is.New(t)
	text := "id name Fake\r\n\nusiok\n  info depth 1 pv 7g7f  \n\n\nbestmove 7g7f\n"
	expected := []string{"id name Fake", "usiok", "info depth 1 pv 7g7f", "bestmove 7g7f"}

	is.Equal(decodeChunks(text), expected)
	// Every way of cutting the text into three chunks gives the same lines.
	for i := 0; i <= len(text); i++ {
		for j := i; j <= len(text); j++ {
			is.Equal(decodeChunks(text[:i], text[i:j], text[j:]), expected)
		}
	}
	// One byte at a time.
	var bytewise []string
	for i := range len(text) {
		bytewise = append(bytewise, text[i:i+1])
	}
	is.Equal(decodeChunks(bytewise...), expected)
}

func TestLineDecoderHoldsPartialLine(t *testing.T) {
	is := is.New(t)
	var lines []string
	d := NewLineDecoder(func(l string) { lines = append(lines, l) })

	n, err := d.Write([]byte("bestmo"))
	is.NoErr(err)
	is.Equal(n, 6)
	is.Equal(len(lines), 0)
	is.Equal(d.Buffered(), 6)

	d.Write([]byte("ve 7g7f\ninfo"))
	is.Equal(lines, []string{"bestmove 7g7f"})
	is.Equal(d.Buffered(), 4)

	d.Write([]byte(" depth 3\n"))
	is.Equal(lines, []string{"bestmove 7g7f", "info depth 3"})
	is.Equal(d.Buffered(), 0)
}

func TestLineDecoderPassesThroughOddBytes(t *testing.T) {
	is := is.New(t)
	is.Equal(decodeChunks("info string \xff\xfe\n"), []string{"info string \xff\xfe"})
}
