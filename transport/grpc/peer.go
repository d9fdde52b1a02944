package grpcproto

import (
	"context"
	"net"

	"google.golang.org/grpc/peer"
)

func peerAddr(ctx context.Context) (net.Addr, bool) {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return nil, false
	}
	return p.Addr, true
}
