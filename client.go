// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package modbus

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Client provides the standard Modbus operations over one serial RTU
// connection. It wraps a Transactor and inherits its single-transaction
// discipline: callers must not issue concurrent operations on one Client.
type Client struct {
	transactor *Transactor
}

// NewClient opens a session for cfg and returns a ready-to-use client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	session, err := OpenSession(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{transactor: NewTransactor(session, cfg.Timeout)}, nil
}

// SetLogger installs a writer for frame-level tracing. nil disables it.
func (c *Client) SetLogger(logger io.Writer) {
	c.transactor.SetLogger(logger)
}

// SetTimeout updates the per-transaction deadline.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.transactor.SetTimeout(timeout)
}

// Timeout returns the per-transaction deadline currently in effect.
func (c *Client) Timeout() time.Duration {
	return c.transactor.Timeout()
}

// Handle exposes the underlying connection for metadata inspection.
func (c *Client) Handle() io.ReadWriteCloser {
	return c.transactor.Handle()
}

// Close releases the underlying session.
func (c *Client) Close() error {
	return c.transactor.Close()
}

// ReadRaw sends a fully formed request frame and returns the matching
// response frame without interpreting its payload.
func (c *Client) ReadRaw(request []byte) ([]byte, error) {
	return c.transactor.Transact(request)
}

// buildRequest assembles a request frame: slave id, function code, payload
// and trailing CRC.
func buildRequest(slaveID uint8, functionCode uint8, payload []byte) []byte {
	frame := make([]byte, 0, 2+len(payload)+2)
	frame = append(frame, slaveID, functionCode)
	frame = append(frame, payload...)
	return appendCRC(frame)
}

// request performs one transaction and returns the response payload (the
// bytes between the function code and the CRC). Exception responses are
// converted into *ModbusError.
func (c *Client) request(slaveID uint8, functionCode uint8, payload []byte) ([]byte, error) {
	response, err := c.transactor.Transact(buildRequest(slaveID, functionCode, payload))
	if err != nil {
		return nil, err
	}
	if response[1]&exceptionBit != 0 {
		return nil, &ModbusError{
			FunctionCode:  response[1] &^ exceptionBit,
			ExceptionCode: response[2],
		}
	}
	return response[2 : len(response)-2], nil
}

// readBits performs a coil or discrete-input read and unpacks the bit field.
func (c *Client) readBits(slaveID uint8, functionCode uint8, startAddress, quantity uint16) ([]bool, error) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], startAddress)
	binary.BigEndian.PutUint16(payload[2:4], quantity)

	data, err := c.request(slaveID, functionCode, payload)
	if err != nil {
		return nil, err
	}
	byteCount := int(data[0])
	if len(data) != 1+byteCount || byteCount < (int(quantity)+7)/8 {
		return nil, fmt.Errorf("modbus: invalid bit response length: %d bytes for %d bits", byteCount, quantity)
	}

	bits := make([]bool, quantity)
	for i := 0; i < int(quantity); i++ {
		if data[1+i/8]&(1<<(i%8)) != 0 {
			bits[i] = true
		}
	}
	return bits, nil
}

// readRegisters performs a holding or input register read.
func (c *Client) readRegisters(slaveID uint8, functionCode uint8, startAddress, quantity uint16) ([]uint16, error) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], startAddress)
	binary.BigEndian.PutUint16(payload[2:4], quantity)

	data, err := c.request(slaveID, functionCode, payload)
	if err != nil {
		return nil, err
	}
	byteCount := int(data[0])
	if len(data) != 1+byteCount || byteCount != 2*int(quantity) {
		return nil, fmt.Errorf("modbus: invalid register response length: %d bytes for %d registers", byteCount, quantity)
	}

	registers := make([]uint16, quantity)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(data[1+2*i : 3+2*i])
	}
	return registers, nil
}

// writeEcho performs a write operation whose response echoes address and
// value/quantity, and validates the echo.
func (c *Client) writeEcho(slaveID uint8, functionCode uint8, address, value uint16, payload []byte) error {
	data, err := c.request(slaveID, functionCode, payload)
	if err != nil {
		return err
	}
	if len(data) != 4 {
		return fmt.Errorf("modbus: invalid echo response length: %d bytes", len(data))
	}
	if got := binary.BigEndian.Uint16(data[0:2]); got != address {
		return fmt.Errorf("modbus: echo address mismatch: wrote 0x%04X, echoed 0x%04X", address, got)
	}
	if got := binary.BigEndian.Uint16(data[2:4]); got != value {
		return fmt.Errorf("modbus: echo value mismatch: wrote 0x%04X, echoed 0x%04X", value, got)
	}
	return nil
}

// ReadCoils reads quantity coils starting at startAddress.
func (c *Client) ReadCoils(slaveID uint8, startAddress, quantity uint16) ([]bool, error) {
	return c.readBits(slaveID, FuncCodeReadCoils, startAddress, quantity)
}

// ReadDiscreteInputs reads quantity discrete inputs starting at startAddress.
func (c *Client) ReadDiscreteInputs(slaveID uint8, startAddress, quantity uint16) ([]bool, error) {
	return c.readBits(slaveID, FuncCodeReadDiscreteInputs, startAddress, quantity)
}

// ReadHoldingRegisters reads quantity holding registers starting at startAddress.
func (c *Client) ReadHoldingRegisters(slaveID uint8, startAddress, quantity uint16) ([]uint16, error) {
	return c.readRegisters(slaveID, FuncCodeReadHoldingRegisters, startAddress, quantity)
}

// ReadInputRegisters reads quantity input registers starting at startAddress.
func (c *Client) ReadInputRegisters(slaveID uint8, startAddress, quantity uint16) ([]uint16, error) {
	return c.readRegisters(slaveID, FuncCodeReadInputRegisters, startAddress, quantity)
}

// WriteSingleCoil writes one coil. true maps to 0xFF00 on the wire.
func (c *Client) WriteSingleCoil(slaveID uint8, address uint16, value bool) error {
	coil := uint16(0x0000)
	if value {
		coil = 0xFF00
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], address)
	binary.BigEndian.PutUint16(payload[2:4], coil)
	return c.writeEcho(slaveID, FuncCodeWriteSingleCoil, address, coil, payload)
}

// WriteSingleRegister writes one holding register.
func (c *Client) WriteSingleRegister(slaveID uint8, address, value uint16) error {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], address)
	binary.BigEndian.PutUint16(payload[2:4], value)
	return c.writeEcho(slaveID, FuncCodeWriteSingleRegister, address, value, payload)
}

// WriteMultipleCoils writes a run of coils starting at startAddress.
func (c *Client) WriteMultipleCoils(slaveID uint8, startAddress uint16, values []bool) error {
	if len(values) == 0 {
		return fmt.Errorf("modbus: no coil values to write")
	}
	quantity := uint16(len(values))
	byteCount := (len(values) + 7) / 8
	payload := make([]byte, 5+byteCount)
	binary.BigEndian.PutUint16(payload[0:2], startAddress)
	binary.BigEndian.PutUint16(payload[2:4], quantity)
	payload[4] = byte(byteCount)
	for i, v := range values {
		if v {
			payload[5+i/8] |= 1 << (i % 8)
		}
	}
	return c.writeEcho(slaveID, FuncCodeWriteMultipleCoils, startAddress, quantity, payload)
}

// WriteMultipleRegisters writes a run of holding registers starting at
// startAddress.
func (c *Client) WriteMultipleRegisters(slaveID uint8, startAddress uint16, values []uint16) error {
	if len(values) == 0 {
		return fmt.Errorf("modbus: no register values to write")
	}
	quantity := uint16(len(values))
	payload := make([]byte, 5+2*len(values))
	binary.BigEndian.PutUint16(payload[0:2], startAddress)
	binary.BigEndian.PutUint16(payload[2:4], quantity)
	payload[4] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(payload[5+2*i:7+2*i], v)
	}
	return c.writeEcho(slaveID, FuncCodeWriteMultipleRegisters, startAddress, quantity, payload)
}
