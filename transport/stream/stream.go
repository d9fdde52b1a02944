// Package stream is the polymorphism boundary of spec §4.4: a single
// byte-stream type that can wrap a plain TCP socket, a server-side TLS
// socket, or a client-side TLS socket, exposing Read/Write/Close
// regardless of which variant is active. Grounded on xray-core's
// transport/internet/stat.Connection + the tcp/tls dial and listen
// pattern, trimmed of Reality/uTLS fingerprinting (see DESIGN.md).
package stream

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/cty123/trojan-relay/common/errors"
)

// Variant tags which underlying transport a Stream wraps.
type Variant int

const (
	Plain Variant = iota
	ServerTLS
	ClientTLS
)

// Stream is "a thing that is readable, writable, and shuttable" over
// plain TCP or TLS-over-TCP. It exclusively owns its underlying socket;
// Close releases it.
type Stream struct {
	net.Conn
	variant Variant
}

// NewPlain wraps a raw TCP connection with no escalation.
func NewPlain(conn net.Conn) *Stream {
	return &Stream{Conn: conn, variant: Plain}
}

// NewServerTLS performs (or wraps) a server-side TLS handshake over
// conn. The handshake is driven eagerly so a failure here is reported
// immediately, matching spec §4.5 step 1 ("on failure -> fatal for this
// connection").
func NewServerTLS(ctx context.Context, conn net.Conn, config *tls.Config) (*Stream, error) {
	tlsConn := tls.Server(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, errors.New("TLS server handshake failed").Base(err).WithKind(errors.KindConnectionReset)
	}
	return &Stream{Conn: tlsConn, variant: ServerTLS}, nil
}

// NewClientTLS performs a client-side TLS handshake over conn with SNI
// and verification controlled by config.
func NewClientTLS(ctx context.Context, conn net.Conn, config *tls.Config) (*Stream, error) {
	tlsConn := tls.Client(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, errors.New("TLS client handshake failed").Base(err).WithKind(errors.KindConnectionReset)
	}
	return &Stream{Conn: tlsConn, variant: ClientTLS}, nil
}

// Variant reports which transport this Stream wraps.
func (s *Stream) Variant() Variant { return s.variant }

// Shutdown releases the underlying socket. It is an alias for Close kept
// to mirror the "shutdown releases both" ownership language of spec §3.
func (s *Stream) Shutdown() error { return s.Conn.Close() }

// ClientTLSConfig builds the *tls.Config used when this process is the
// client edge escalating a plaintext inbound into a TLS carrier,
// honoring "allow_insecure" from the outbound config (spec §6).
func ClientTLSConfig(serverName string, allowInsecure bool, nextProtos []string) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: allowInsecure,
		NextProtos:         nextProtos,
	}
}

// ServerTLSConfig builds the *tls.Config used when this process is the
// server edge terminating TLS, from a loaded certificate chain.
func ServerTLSConfig(cert tls.Certificate, nextProtos []string) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   nextProtos,
	}
}
