package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// TelnetClient is a line-oriented Telnet client for exercising the dice bot
// over a real socket.
type TelnetClient struct {
	conn    net.Conn
	pending string
	t       *testing.T
}

// NewTelnetClient dials addr and returns a test client closed at test cleanup.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() { conn.Close() })

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil reads until substr has been received or timeout elapses.
// Output after the match is kept for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the output up to and including substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	buf := c.pending
	tmp := make([]byte, 1024)
	for {
		if i := strings.Index(buf, substr); i >= 0 {
			end := i + len(substr)
			c.pending = buf[end:]
			return buf[:end]
		}
		n, err := c.conn.Read(tmp)
		buf += string(tmp[:n])
		if err != nil && !strings.Contains(buf, substr) {
			c.pending = buf
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, buf, err)
		}
	}
}

// Send writes text followed by \r\n.
//
// Precondition: text should not contain trailing newline characters.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	c.conn.Close()
}
