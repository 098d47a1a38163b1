package modbus

import "fmt"

// Standard Modbus function codes.
const (
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10
)

// exceptionBit marks an exception response in the function code byte.
const exceptionBit = 0x80

// minFrameLen is the shortest valid RTU frame: slave id + function code +
// one payload byte (exception code) + two CRC bytes.
const minFrameLen = 5

// headerLen is the number of buffered bytes needed before the frame length
// can be resolved: the byte-count field of the read responses sits at
// offset 2.
const headerLen = 3

// fixedEchoLen is the length of the echo responses to the four write
// operations: slave id + function code + address + value/quantity + CRC.
const fixedEchoLen = 8

// frameLength resolves the total length of the next complete frame in buf
// from its function code, or 0 when more bytes are needed.
//
// Exception responses are always 5 bytes. The four read operations carry a
// byte-count field at offset 2. The four write operations echo a fixed
// 8-byte frame; unrecognized function codes fall back to the same fixed
// length.
func frameLength(buf []byte) int {
	if len(buf) < headerLen {
		return 0
	}
	var need int
	switch fc := buf[1]; {
	case fc&exceptionBit != 0:
		need = minFrameLen
	case fc == FuncCodeReadCoils, fc == FuncCodeReadDiscreteInputs,
		fc == FuncCodeReadHoldingRegisters, fc == FuncCodeReadInputRegisters:
		need = headerLen + int(buf[2]) + 2
	default:
		need = fixedEchoLen
	}
	if len(buf) < need {
		return 0
	}
	return need
}

// ModbusError represents an exception response from a slave device.
type ModbusError struct {
	FunctionCode  uint8 // Original function code, high bit cleared
	ExceptionCode uint8
}

func (e *ModbusError) Error() string {
	return fmt.Sprintf("modbus: exception %d (%s), function %d",
		e.ExceptionCode, exceptionMessage(e.ExceptionCode), e.FunctionCode)
}

// exceptionMessage returns a human-readable message for a Modbus exception code.
func exceptionMessage(exceptionCode uint8) string {
	switch exceptionCode {
	case 0x01:
		return "illegal function"
	case 0x02:
		return "illegal data address"
	case 0x03:
		return "illegal data value"
	case 0x04:
		return "slave device failure"
	case 0x05:
		return "acknowledge"
	case 0x06:
		return "slave device busy"
	case 0x08:
		return "memory parity error"
	case 0x0A:
		return "gateway path unavailable"
	case 0x0B:
		return "gateway target device failed to respond"
	default:
		return "unknown exception code"
	}
}
