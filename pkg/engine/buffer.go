package engine

const initialWriteBufferSize = 4096

// WriteBuffer accumulates an engine's serialised output.
type WriteBuffer struct {
	buf []byte
	pos int
}

// NewWriteBuffer returns an empty buffer with the default initial capacity.
func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{buf: make([]byte, initialWriteBufferSize)}
}

// Append copies p onto the end of the buffer, growing the backing storage
// to max(2*size, needed) when it is full.
func (w *WriteBuffer) Append(p []byte) {
	need := w.pos + len(p)
	if need > len(w.buf) {
		grown := make([]byte, max(2*len(w.buf), need))
		copy(grown, w.buf[:w.pos])
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos = need
}

// Len returns the number of bytes written.
func (w *WriteBuffer) Len() int {
	return w.pos
}

// Bytes returns an exactly sized copy of the written bytes.
func (w *WriteBuffer) Bytes() []byte {
	out := make([]byte, w.pos)
	copy(out, w.buf[:w.pos])
	return out
}

// ReadBuffer feeds a byte stream to an engine's deserialiser.
type ReadBuffer struct {
	data []byte
	pos  int
}

// NewReadBuffer wraps data. The slice is not copied.
func NewReadBuffer(data []byte) *ReadBuffer {
	return &ReadBuffer{data: data}
}

// Read fills p from the stream. It returns false, consuming nothing, when
// fewer than len(p) bytes remain.
func (r *ReadBuffer) Read(p []byte) bool {
	if r.pos+len(p) > len(r.data) {
		return false
	}
	copy(p, r.data[r.pos:])
	r.pos += len(p)
	return true
}

// Remaining returns the number of unread bytes.
func (r *ReadBuffer) Remaining() int {
	return len(r.data) - r.pos
}
