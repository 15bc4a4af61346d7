package vpack

import (
	"bufio"
	"io"
)

// Sink is an append-only text destination for the Dumper. *bytes.Buffer,
// *strings.Builder and *bufio.Writer all satisfy it.
type Sink interface {
	Write(p []byte) (int, error)
	WriteByte(c byte) error
	WriteString(s string) (int, error)
}

// NewWriterSink wraps w in a buffered Sink. The caller must Flush it.
func NewWriterSink(w io.Writer) *bufio.Writer {
	if bw, ok := w.(*bufio.Writer); ok {
		return bw
	}
	return bufio.NewWriter(w)
}
