package vpack

// Buffer is an owned, growable byte store. A Builder writes into one; Slices
// borrow its contents.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty Buffer with room for n bytes.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, 0, n)}
}

// Append copies p to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.Reserve(len(p))
	b.data = append(b.data, p...)
}

// AppendString copies s to the end of the buffer.
func (b *Buffer) AppendString(s string) {
	b.Reserve(len(s))
	b.data = append(b.data, s...)
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	b.Reserve(1)
	b.data = append(b.data, c)
}

// Reserve guarantees that n more bytes can be appended without another
// allocation. Capacity at least doubles on growth.
func (b *Buffer) Reserve(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	buf := make([]byte, len(b.data), 2*cap(b.data)+n)
	copy(buf, b.data)
	b.data = buf
}

// grow extends the length by n bytes and returns the offset of the first
// new byte. The new bytes are zeroed.
func (b *Buffer) grow(n int) int {
	b.Reserve(n)
	off := len(b.data)
	b.data = b.data[:off+n]
	clear(b.data[off:])
	return off
}

// Bytes returns the current contents. The slice aliases the buffer and is
// invalidated by the next mutation that reallocates.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return cap(b.data) }

// Truncate discards all but the first n bytes.
func (b *Buffer) Truncate(n int) {
	b.data = b.data[:n]
}

// Reset empties the buffer but keeps its storage for reuse.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Steal hands the underlying storage to the caller and leaves the buffer
// empty with no storage of its own.
func (b *Buffer) Steal() []byte {
	d := b.data
	b.data = nil
	return d
}
