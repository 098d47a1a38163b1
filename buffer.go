package modbus

// frameBuffer accumulates received bytes across reads so that frame
// boundaries can be reconstructed from an arbitrarily chunked stream.
// Leftover bytes are retained across parse attempts and across successive
// transactions on the same Transactor. It is owned by exactly one in-flight
// transaction and is not safe for concurrent use.
type frameBuffer struct {
	data []byte
}

// Len returns the number of buffered bytes.
func (b *frameBuffer) Len() int {
	return len(b.data)
}

// Append adds newly received bytes to the end of the buffer.
func (b *frameBuffer) Append(chunk []byte) {
	b.data = append(b.data, chunk...)
}

// Consume removes and returns the first n buffered bytes. The remainder
// stays buffered for the next parse attempt, so multiple frames delivered
// in one read can be consumed without further reads.
func (b *frameBuffer) Consume(n int) []byte {
	head := make([]byte, n)
	copy(head, b.data[:n])
	b.data = append(b.data[:0], b.data[n:]...)
	return head
}

// DropFront discards the first n buffered bytes, or everything if fewer
// than n are buffered.
func (b *frameBuffer) DropFront(n int) {
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	b.data = append(b.data[:0], b.data[n:]...)
}

// Bytes exposes the buffered bytes for length resolution. The returned
// slice is only valid until the next mutation.
func (b *frameBuffer) Bytes() []byte {
	return b.data
}
