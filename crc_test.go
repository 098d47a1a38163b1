package modbus

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		// Read 2 holding registers from address 0 on id 1; the frame on
		// the wire is 01 03 00 00 00 02 C4 0B.
		{data: []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x02}, expected: 0x0BC4},
		{data: []byte{0x01, 0x03, 0x02, 0x12, 0x34}, expected: 0xB533},
		{data: []byte{}, expected: 0xFFFF},
	}

	for _, tc := range testCases {
		if crc := CRC16(tc.data); crc != tc.expected {
			t.Errorf("CRC16(% X) = %#04x, expected %#04x", tc.data, crc, tc.expected)
		}
	}
}

func TestAppendCRCOrder(t *testing.T) {
	frame := appendCRC([]byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x02})
	assertBytesEqual(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x02, 0xC4, 0x0B}, frame)
	if !verifyCRC(frame) {
		t.Errorf("verifyCRC rejected a frame produced by appendCRC")
	}
}

func TestVerifyCRCDetectsAnySingleByteFlip(t *testing.T) {
	frame := appendCRC([]byte{0x01, 0x03, 0x04, 0x00, 0x0A, 0x00, 0x0B})
	if !verifyCRC(frame) {
		t.Fatalf("baseline frame does not verify")
	}
	for i := range frame {
		frame[i] ^= 0xFF
		if verifyCRC(frame) {
			t.Errorf("flip of byte %d went undetected", i)
		}
		frame[i] ^= 0xFF
	}
}

func TestVerifyCRCTooShort(t *testing.T) {
	for _, frame := range [][]byte{nil, {0x01}, {0x01, 0x03}, {0x01, 0x03, 0x04}} {
		if verifyCRC(frame) {
			t.Errorf("verifyCRC accepted %d-byte input", len(frame))
		}
	}
}
