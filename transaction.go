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
)

// ErrTimeout is returned by Transact when the deadline elapses before a
// complete response arrives, or when the stream ends first.
var ErrTimeout = errors.New("modbus: transaction timed out")

// ChecksumError is returned by Transact when a candidate frame's trailing
// CRC bytes do not match the CRC computed over its preceding bytes.
type ChecksumError struct {
	Want uint16 // CRC computed over the frame body
	Got  uint16 // CRC carried in the frame's trailing bytes
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("modbus: CRC mismatch: calculated=0x%04X, received=0x%04X", e.Want, e.Got)
}

// Transactor drives one request/response exchange at a time over a port
// session. It reassembles response frames from the arbitrarily chunked
// byte stream, validates their CRC and discards frames belonging to stale
// or foreign exchanges, all under a wall-clock deadline.
//
// A Transactor holds no internal lock: exactly one Transact call may be in
// flight, and callers must serialize transactions externally. Concurrent
// calls would interleave reads into the same reassembly buffer and corrupt
// framing.
type Transactor struct {
	session *PortSession
	timeout time.Duration
	buf     frameBuffer
	logger  io.Writer
}

// NewTransactor wraps an open session. timeout bounds each Transact call;
// zero selects DefaultTimeout.
func NewTransactor(session *PortSession, timeout time.Duration) *Transactor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Transactor{session: session, timeout: timeout}
}

// SetLogger installs a writer for frame-level tracing. nil disables it.
func (t *Transactor) SetLogger(logger io.Writer) {
	t.logger = logger
}

// SetTimeout updates the per-transaction deadline.
func (t *Transactor) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		t.timeout = timeout
	}
}

// Timeout returns the per-transaction deadline currently in effect.
func (t *Transactor) Timeout() time.Duration {
	return t.timeout
}

// Handle exposes the underlying connection of the wrapped session.
func (t *Transactor) Handle() io.ReadWriteCloser {
	return t.session.Handle()
}

// Close closes the wrapped session.
func (t *Transactor) Close() error {
	return t.session.Close()
}

// Transact writes the pre-validated request frame and returns the matching,
// CRC-checked response frame. The request's own CRC is never re-derived or
// checked.
//
// Failure semantics: ErrTimeout and ChecksumError are terminal for the
// call, with no internal retry. A response whose function code does not
// match the request's is not an error: it is a stale or foreign frame and
// is silently discarded while the call keeps waiting for the matching one.
func (t *Transactor) Transact(request []byte) ([]byte, error) {
	if len(request) < 2 {
		return nil, fmt.Errorf("modbus: request too short: %d bytes", len(request))
	}
	if err := t.session.Write(request); err != nil {
		return nil, err
	}
	t.tracef("modbus: -> % X", request)

	expected := request[1] &^ exceptionBit
	deadline := time.Now().Add(t.timeout)

	for {
		for t.buf.Len() < headerLen {
			if err := t.fill(deadline); err != nil {
				return nil, err
			}
		}
		need := frameLength(t.buf.Bytes())
		if need == 0 {
			if err := t.fill(deadline); err != nil {
				return nil, err
			}
			continue
		}
		candidate := t.buf.Consume(need)
		if !verifyCRC(candidate) {
			// Shift the retained remainder by one byte so a future call
			// resynchronizes past the corruption instead of re-parsing
			// from the same spot.
			t.buf.DropFront(1)
			dataLen := len(candidate) - 2
			return nil, &ChecksumError{
				Want: CRC16(candidate[:dataLen]),
				Got:  uint16(candidate[dataLen]) | uint16(candidate[dataLen+1])<<8,
			}
		}
		if candidate[1]&^exceptionBit == expected {
			t.tracef("modbus: <- % X", candidate)
			return candidate, nil
		}
		// Stale frame from an earlier or foreign exchange. Any bytes
		// already buffered behind it are re-examined before the next read.
		t.tracef("modbus: discarding stale frame % X", candidate)
	}
}

// fill performs one deadline-checked read and appends the received bytes
// to the reassembly buffer. The deadline is polled cooperatively: it is
// checked before the read, never while the read is pending, so the worst
// case overrun is one poll interval.
func (t *Transactor) fill(deadline time.Time) error {
	if time.Now().After(deadline) {
		return ErrTimeout
	}
	chunk, err := t.session.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrTimeout
		}
		return err
	}
	t.buf.Append(chunk)
	return nil
}

func (t *Transactor) tracef(format string, args ...any) {
	if t.logger != nil {
		fmt.Fprintf(t.logger, format+"\n", args...)
	}
}
