package grpcproto

import (
	"context"
	"crypto/tls"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// Dial opens a TunService stream to addr over TLS and returns it as a
// plain byte stream, for use by the outbound handler's GRPC mode
// (spec §4.6 "GRPC").
func Dial(ctx context.Context, addr string, tlsConfig *tls.Config) (io.ReadWriteCloser, error) {
	creds := credentials.NewTLS(tlsConfig)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}

	client := NewTunServiceClient(conn)
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := client.Tun(streamCtx)
	if err != nil {
		cancel()
		conn.Close()
		return nil, err
	}

	return NewConn(stream, func() error {
		cancel()
		return conn.Close()
	}), nil
}
