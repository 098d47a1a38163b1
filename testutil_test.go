package modbus

import (
	"io"
	"testing"
)

// fakePort scripts the read side of a duplex stream. Each Read delivers
// bytes from the next scripted chunk. An exhausted script yields io.EOF,
// or reports no data when hold is set, like a poll interval expiring on a
// silent line.
type fakePort struct {
	chunks [][]byte
	hold   bool
	reads  int
	writes [][]byte
	closed bool
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.reads++
	if len(p.chunks) == 0 {
		if p.hold {
			return 0, nil
		}
		return 0, io.EOF
	}
	chunk := p.chunks[0]
	n := copy(buf, chunk)
	if n < len(chunk) {
		p.chunks[0] = chunk[n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	recorded := make([]byte, len(data))
	copy(recorded, data)
	p.writes = append(p.writes, recorded)
	return len(data), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// newTestTransactor wires a Transactor over a fakePort via the pre-opened
// port bypass.
func newTestTransactor(t *testing.T, port *fakePort) *Transactor {
	t.Helper()
	session, err := OpenSession(Config{Port: port})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	return NewTransactor(session, DefaultTimeout)
}

// splitBytes chops data into chunks of at most size bytes.
func splitBytes(data []byte, size int) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

func assertBytesEqual(t *testing.T, expected, actual []byte) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("expected % X, got % X", expected, actual)
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("expected % X, got % X", expected, actual)
		}
	}
}

func assertUint16Equal(t *testing.T, expected, actual []uint16) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("expected length %d, but got %d", len(expected), len(actual))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Fatalf("expected %v, but got %v", expected, actual)
		}
	}
}
