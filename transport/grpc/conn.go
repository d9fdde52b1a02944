// Package grpcproto wires the gRPC transport (spec §4.4/§4.7/§6): the
// Tun(stream Hunk) returns (stream Hunk) service and the adapter that
// turns that bidirectional message stream into a plain
// io.ReadWriteCloser byte stream, grounded on xray-core's
// transport/internet/grpc/encoding/hunk.go and hunkconn.go.
package grpcproto

import (
	"io"
	"sync"
)

// hunkStream is satisfied by both the client and server halves of the
// Tun RPC.
type hunkStream interface {
	Send(*Hunk) error
	Recv() (*Hunk, error)
}

// Conn adapts a bidirectional Hunk message stream into an
// io.ReadWriteCloser: the read side concatenates incoming chunk
// payloads into an internal buffer, yielding partial reads when the
// caller's buffer fills; the write side sends each write verbatim as
// one chunk (spec §4.4).
type Conn struct {
	stream hunkStream
	closer func() error

	mu  sync.Mutex
	buf []byte
}

// NewConn wraps stream, with closer invoked (and its result returned)
// when Close is called — typically a context.CancelFunc wrapped to
// satisfy error-returning Close.
func NewConn(stream hunkStream, closer func() error) *Conn {
	return &Conn{stream: stream, closer: closer}
}

// Read implements io.Reader, fetching a fresh Hunk from the stream only
// once the previous one has been fully drained.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) == 0 {
		hunk, err := c.stream.Recv()
		if err != nil {
			return 0, err
		}
		c.buf = hunk.Data
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

// Write implements io.Writer, sending p verbatim as one Hunk.
func (c *Conn) Write(p []byte) (int, error) {
	if err := c.stream.Send(&Hunk{Data: p}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close releases the stream via the configured closer.
func (c *Conn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

var _ io.ReadWriteCloser = (*Conn)(nil)
