package modbus

// CRC16 calculates the Modbus CRC16 checksum (polynomial 0xA001,
// initial value 0xFFFF). The low byte of the result goes on the wire first.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if (crc & 0x0001) != 0 {
				crc >>= 1
				crc ^= 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// appendCRC returns frame with its CRC appended, low byte first.
func appendCRC(frame []byte) []byte {
	crc := CRC16(frame)
	return append(frame, byte(crc&0xFF), byte(crc>>8))
}

// verifyCRC checks the two trailing bytes of a complete frame against the
// CRC computed over the preceding bytes. Low byte at len-2, high at len-1;
// no other placement is accepted.
func verifyCRC(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}
	dataLen := len(frame) - 2
	received := uint16(frame[dataLen]) | uint16(frame[dataLen+1])<<8
	return CRC16(frame[:dataLen]) == received
}
