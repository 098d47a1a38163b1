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
	"errors"
	"fmt"
	"io"
	"time"

	serial "github.com/hootrhino/goserial"
)

// Default connection parameters.
const (
	DefaultBaudRate = 9600
	DefaultDataBits = 8
	DefaultStopBits = 1
	DefaultParity   = "N"
	DefaultTimeout  = 500 * time.Millisecond
)

// pollInterval is the port-level read timeout. It paces the transaction
// deadline checks: a read that yields no bytes returns after this long so
// the orchestrator can re-check its wall clock.
const pollInterval = 20 * time.Millisecond

// maxFrameSize is the largest RTU frame: slave id + 253-byte PDU + CRC.
const maxFrameSize = 256

// Config holds the connection parameters for a serial Modbus session.
type Config struct {
	// Address is the serial device path, e.g. "/dev/ttyUSB0" or "COM6".
	// When empty, the first device matching Filters is used.
	Address string
	// BaudRate defaults to 9600.
	BaudRate int
	// DataBits is 7 or 8, default 8.
	DataBits int
	// StopBits is 1 or 2, default 1.
	StopBits int
	// Parity is "N", "E" or "O", default "N".
	Parity string
	// Timeout bounds one request/response transaction. It is consumed by
	// the Transactor, not by the port itself. Default 500ms.
	Timeout time.Duration
	// Port is an optional already-open connection. When set, device
	// discovery and serial configuration are bypassed entirely.
	Port io.ReadWriteCloser
	// Filters narrows device discovery when Address is empty.
	Filters []PortFilter
}

func (c *Config) applyDefaults() error {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.DataBits == 0 {
		c.DataBits = DefaultDataBits
	}
	if c.DataBits != 7 && c.DataBits != 8 {
		return fmt.Errorf("modbus: invalid data bits: %d (must be 7 or 8)", c.DataBits)
	}
	if c.StopBits == 0 {
		c.StopBits = DefaultStopBits
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("modbus: invalid stop bits: %d (must be 1 or 2)", c.StopBits)
	}
	if c.Parity == "" {
		c.Parity = DefaultParity
	}
	if c.Parity != "N" && c.Parity != "E" && c.Parity != "O" {
		return fmt.Errorf("modbus: invalid parity: %q (must be N, E or O)", c.Parity)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// PortSession owns one open duplex byte stream. The read side, write side
// and the underlying connection are held separately so Close can release
// each independently.
type PortSession struct {
	rwc     io.ReadWriteCloser
	reader  io.Reader
	writer  io.Writer
	scratch []byte
}

// OpenSession opens the serial device described by cfg, or wraps the
// pre-opened cfg.Port, and returns a fully constructed session. No session
// method is callable before OpenSession returns.
func OpenSession(cfg Config) (*PortSession, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	rwc := cfg.Port
	if rwc == nil {
		address := cfg.Address
		if address == "" {
			candidates, err := DiscoverPorts(cfg.Filters)
			if err != nil {
				return nil, fmt.Errorf("modbus: device discovery: %w", err)
			}
			if len(candidates) == 0 {
				return nil, errors.New("modbus: no serial device matches the discovery filters")
			}
			address = candidates[0]
		}
		port, err := serial.Open(&serial.Config{
			Address:  address,
			BaudRate: cfg.BaudRate,
			DataBits: cfg.DataBits,
			StopBits: cfg.StopBits,
			Parity:   cfg.Parity,
			Timeout:  pollInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("modbus: open %s: %w", address, err)
		}
		rwc = port
	}
	return &PortSession{
		rwc:     rwc,
		reader:  rwc,
		writer:  rwc,
		scratch: make([]byte, maxFrameSize),
	}, nil
}

// Read returns the next chunk of received bytes. An empty chunk with a nil
// error means the poll interval elapsed with nothing received; io.EOF means
// the stream has ended and no further bytes will arrive.
func (s *PortSession) Read() ([]byte, error) {
	n, err := s.reader.Read(s.scratch)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, s.scratch[:n])
		return chunk, nil
	}
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if errors.Is(err, serial.ErrTimeout) {
		return nil, nil
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return nil, nil
	}
	return nil, fmt.Errorf("modbus: read: %w", err)
}

// Write sends the frame in full.
func (s *PortSession) Write(data []byte) error {
	if len(data) == 0 {
		return errors.New("modbus: cannot write empty frame")
	}
	written := 0
	for written < len(data) {
		n, err := s.writer.Write(data[written:])
		if err != nil {
			return fmt.Errorf("modbus: write failed after %d bytes: %w", written, err)
		}
		written += n
	}
	return nil
}

// Handle exposes the underlying connection for metadata inspection.
func (s *PortSession) Handle() io.ReadWriteCloser {
	return s.rwc
}

// Close releases the reader, the writer and the underlying connection.
// Each sub-resource is released independently; a missing one never
// prevents releasing the others, so Close is safe to call at any time,
// including after a failed or partial open.
func (s *PortSession) Close() error {
	s.reader = nil
	s.writer = nil
	if s.rwc == nil {
		return nil
	}
	err := s.rwc.Close()
	s.rwc = nil
	return err
}
