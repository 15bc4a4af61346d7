package wire

import (
	"bufio"
	"errors"
	"io"
	"log/slog"

	"github.com/rawbytedev/vpack"
)

// Writer writes frames to an io.Writer.
type Writer struct {
	w    io.Writer
	comp Compression
	buf  []byte
}

// NewWriter returns a Writer compressing data frames with comp.
func NewWriter(w io.Writer, comp Compression) *Writer {
	return &Writer{w: w, comp: comp}
}

// WriteValue writes s as one data frame.
func (w *Writer) WriteValue(s vpack.Slice) error {
	out, err := AppendDataFrame(w.buf[:0], s, w.comp)
	if err != nil {
		return err
	}
	w.buf = out
	_, err = w.w.Write(out)
	return err
}

// WriteError writes err as one error frame.
func (w *Writer) WriteError(err error) error {
	out, e := AppendErrorFrame(w.buf[:0], err)
	if e != nil {
		return e
	}
	w.buf = out
	_, e = w.w.Write(out)
	return e
}

// Reader reads frames from an io.Reader. Frames whose CRC does not match
// are logged and skipped; the stream stays in sync through the length
// field.
type Reader struct {
	r      *bufio.Reader
	opts   vpack.Options
	logger *slog.Logger
	buf    []byte
}

// NewReader returns a Reader that validates values with opts; nil means
// defaults. Discarded frames are logged to opts.Logger.
func NewReader(r io.Reader, opts *vpack.Options) *Reader {
	o := vpack.DefaultOptions()
	if opts != nil {
		o = *opts
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{r: bufio.NewReader(r), opts: o, logger: logger}
}

// Next returns the next intact frame. The payload is only valid until the
// following call. At the end of the stream it returns io.EOF.
func (r *Reader) Next() (Frame, error) {
	for {
		header, err := r.r.Peek(headerSize)
		if err != nil {
			if errors.Is(err, io.EOF) && len(header) == 0 {
				return Frame{}, io.EOF
			}
			return Frame{}, io.ErrUnexpectedEOF
		}
		n, err := frameLength(header)
		if err != nil {
			return Frame{}, err
		}
		if cap(r.buf) < n {
			r.buf = make([]byte, n)
		}
		r.buf = r.buf[:n]
		if _, err := io.ReadFull(r.r, r.buf); err != nil {
			return Frame{}, io.ErrUnexpectedEOF
		}
		f, _, err := ParseFrame(r.buf)
		if errors.Is(err, ErrCRC) {
			r.logger.Warn("wire: discarding corrupt frame", "length", n, "type", FrameType(r.buf[3]))
			continue
		}
		if err != nil {
			return Frame{}, err
		}
		return f, nil
	}
}

// ReadValue returns the value of the next data frame. An error frame is
// returned as its *vpack.Error.
func (r *Reader) ReadValue() (vpack.Slice, error) {
	f, err := r.Next()
	if err != nil {
		return vpack.Slice{}, err
	}
	if f.Type == TypeError {
		e, err := f.Err()
		if err != nil {
			return vpack.Slice{}, err
		}
		return vpack.Slice{}, e
	}
	return f.Value(&r.opts)
}
