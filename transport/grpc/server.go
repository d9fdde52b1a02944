package grpcproto

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// sendQueueDepth is the bounded channel depth on the server's response
// direction, per spec §4.7 ("recommended depth 16"). A full queue is a
// write failure that terminates the tunnel.
const sendQueueDepth = 16

// serverConn is the server-side Hunk adapter: reads proceed directly
// against the stream (inbound data is already flow-controlled by gRPC),
// while writes go through a bounded channel drained by a dedicated
// goroutine so a slow client cannot block the relay's outbound copy
// indefinitely without a bounded, observable failure.
type serverConn struct {
	*Conn
	sendCh  chan []byte
	sendErr chan error
	once    sync.Once
	err     error
	errMu   sync.Mutex
}

func newServerConn(stream hunkStream, closer func() error) *serverConn {
	sc := &serverConn{
		Conn:    NewConn(stream, closer),
		sendCh:  make(chan []byte, sendQueueDepth),
		sendErr: make(chan error, 1),
	}
	go sc.drain(stream)
	return sc
}

func (sc *serverConn) drain(stream hunkStream) {
	for p := range sc.sendCh {
		if err := stream.Send(&Hunk{Data: p}); err != nil {
			sc.setErr(err)
			return
		}
	}
}

func (sc *serverConn) setErr(err error) {
	sc.errMu.Lock()
	defer sc.errMu.Unlock()
	if sc.err == nil {
		sc.err = err
	}
}

func (sc *serverConn) getErr() error {
	sc.errMu.Lock()
	defer sc.errMu.Unlock()
	return sc.err
}

// Write enqueues p on the bounded send channel. A full channel (the
// client is not draining fast enough) fails the write immediately
// rather than blocking the relay goroutine.
func (sc *serverConn) Write(p []byte) (int, error) {
	if err := sc.getErr(); err != nil {
		return 0, err
	}
	cp := append([]byte(nil), p...)
	select {
	case sc.sendCh <- cp:
		return len(p), nil
	default:
		err := io.ErrShortWrite
		sc.setErr(err)
		return 0, err
	}
}

func (sc *serverConn) Close() error {
	sc.once.Do(func() { close(sc.sendCh) })
	return sc.Conn.Close()
}

// Handler is invoked once per accepted tunnel with the byte stream to
// run the Trojan-parse-and-dispatch pipeline over (spec §4.7).
type Handler func(ctx context.Context, conn io.ReadWriteCloser, peer net.Addr) error

// Listener serves the TunService and dispatches each stream to Handler.
type Listener struct {
	UnimplementedTunServiceServer
	handler Handler
	server  *grpc.Server
}

// Tun implements TunServiceServer.
func (l *Listener) Tun(stream TunService_TunServer) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	conn := newServerConn(stream, func() error { cancel(); return nil })
	defer conn.Close()

	peer, _ := peerAddr(stream.Context())
	return l.handler(ctx, conn, peer)
}

// Listen binds addr and serves TunService over TLS using cert, invoking
// handler for each tunnel. It blocks until the server stops or ctx is
// canceled.
func Listen(ctx context.Context, addr string, cert tls.Certificate, handler Handler) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	creds := credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2"},
	})
	s := grpc.NewServer(grpc.Creds(creds))
	listener := &Listener{handler: handler, server: s}
	RegisterTunServiceServer(s, listener)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return s.Serve(lis)
}
