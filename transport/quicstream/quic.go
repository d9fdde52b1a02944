// Package quicstream terminates QUIC (spec §4.8/§6) and turns each
// bidirectional stream opened on a connection into a plain byte stream
// for the Trojan parse-and-dispatch pipeline, grounded on xray-core's
// transport/internet/quic/hub.go accept-loop shape, ported from that
// package's lucas-clemente/quic-go era API onto the modern
// github.com/quic-go/quic-go API already pinned in go.mod.
package quicstream

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/quic-go/quic-go"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/common/log"
)

// ALPN is the fixed protocol negotiation list spec §6 requires.
var ALPN = []string{"hq-29", "h2", "h3"}

// Handler is invoked once per opened bidirectional stream.
type Handler func(ctx context.Context, stream io.ReadWriteCloser, peer net.Addr) error

// Listen binds addr with the given TLS identity and serves incoming
// QUIC connections, dispatching each newly opened bidirectional stream
// to handler. Multiple concurrent streams per connection are supported
// and share no state (spec §4.8). It blocks until ctx is canceled or the
// listener fails.
func Listen(ctx context.Context, addr string, tlsConfig *tls.Config, handler Handler) error {
	cfg := tlsConfig.Clone()
	cfg.NextProtos = ALPN

	listener, err := quic.ListenAddr(addr, cfg, nil)
	if err != nil {
		return errors.New("failed to bind QUIC listener").Base(err)
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warning("failed to accept QUIC connection: ", err)
			continue
		}
		go acceptStreams(ctx, conn, handler)
	}
}

func acceptStreams(ctx context.Context, conn quic.Connection, handler Handler) {
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go func() {
			if err := handler(ctx, stream, conn.RemoteAddr()); err != nil {
				log.FromError(err)
			}
		}()
	}
}

// Dial opens a new QUIC connection to addr and returns one bidirectional
// stream on it, for the outbound handler's QUIC mode (spec §4.6 "QUIC").
// Connections are not reused across tunnels: closing the returned stream
// closes its connection as well.
func Dial(ctx context.Context, addr string, tlsConfig *tls.Config) (io.ReadWriteCloser, error) {
	cfg := tlsConfig.Clone()
	cfg.NextProtos = ALPN

	conn, err := quic.DialAddr(ctx, addr, cfg, nil)
	if err != nil {
		return nil, errors.New("failed to dial QUIC connection").Base(err).WithKind(errors.KindConnectionRefused)
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, errors.New("failed to open QUIC stream").Base(err).WithKind(errors.KindConnectionRefused)
	}
	return &streamCloser{Stream: stream, conn: conn}, nil
}

// streamCloser closes both the stream and its parent connection so a
// dialed outbound tunnel doesn't leak the underlying QUIC connection.
type streamCloser struct {
	quic.Stream
	conn quic.Connection
}

func (s *streamCloser) Close() error {
	err := s.Stream.Close()
	_ = s.conn.CloseWithError(0, "")
	return err
}
