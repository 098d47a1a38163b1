package modbus

import "testing"

func TestFrameBufferConsumeRetainsRemainder(t *testing.T) {
	var buf frameBuffer
	buf.Append([]byte{1, 2, 3})
	buf.Append([]byte{4, 5})

	head := buf.Consume(3)
	assertBytesEqual(t, []byte{1, 2, 3}, head)
	if buf.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", buf.Len())
	}
	assertBytesEqual(t, []byte{4, 5}, buf.Bytes())
}

// Multiple frames arriving in one read must be consumable back to back
// without any intervening append.
func TestFrameBufferRepeatedConsume(t *testing.T) {
	var buf frameBuffer
	buf.Append([]byte{1, 2, 3, 4, 5, 6})
	assertBytesEqual(t, []byte{1, 2}, buf.Consume(2))
	assertBytesEqual(t, []byte{3, 4}, buf.Consume(2))
	assertBytesEqual(t, []byte{5, 6}, buf.Consume(2))
	if buf.Len() != 0 {
		t.Fatalf("Len() = %d, expected 0", buf.Len())
	}
}

func TestFrameBufferDropFront(t *testing.T) {
	var buf frameBuffer
	buf.Append([]byte{1, 2, 3})
	buf.DropFront(1)
	assertBytesEqual(t, []byte{2, 3}, buf.Bytes())
	buf.DropFront(5)
	if buf.Len() != 0 {
		t.Fatalf("Len() = %d, expected 0 after oversized drop", buf.Len())
	}
}

func TestFrameBufferConsumeCopiesHead(t *testing.T) {
	var buf frameBuffer
	buf.Append([]byte{1, 2, 3, 4})
	head := buf.Consume(2)
	buf.Append([]byte{9, 9})
	assertBytesEqual(t, []byte{1, 2}, head)
}
