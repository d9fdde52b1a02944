// Package relay implements the bidirectional full-duplex copy (spec
// §4.6.2, C6.2) and the UDP-over-stream bridging (spec §4.6.1) shared by
// every outbound mode and by the gRPC/QUIC per-stream dispatch.
//
// Grounded on xray-core's proxy/trojan/client.go two-task
// (postRequest/getResponse) relay, generalized from that package's
// task.Run/task.OnSuccess helpers onto golang.org/x/sync/errgroup, which
// gives the same cancel-propagating "first to finish wins" behavior
// without xray's dispatcher-specific task package.
package relay

import (
	"context"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/trojan"
)

// Bidirectional splits a and b into read/write halves and copies
// a->b and b->a concurrently. The first direction to finish (EOF or
// error) closes both sides, which cancels the other direction's
// blocked I/O; the first non-nil error encountered is returned, or nil
// if both directions ended in a clean EOF (spec §4.6.2/§8 "Relay
// preserves bytes").
func Bidirectional(a, b io.ReadWriteCloser) error {
	g := new(errgroup.Group)

	g.Go(func() error {
		_, err := io.Copy(b, a)
		a.Close()
		b.Close()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(a, b)
		a.Close()
		b.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		return errors.New("relay terminated").Base(err).WithKind(errors.KindConnectionReset)
	}
	return nil
}

// udpReadBufferSize is the recommended read buffer for the remote->client
// direction, per spec §4.6.1.
const udpReadBufferSize = 4096

// BridgeUDP bridges a Trojan UDP-over-stream carrier to a freshly bound
// UDP socket, running both directions concurrently and terminating as
// soon as either completes or errors (spec §4.6.1).
func BridgeUDP(ctx context.Context, carrier io.ReadWriteCloser, conn net.PacketConn) error {
	g := new(errgroup.Group)

	g.Go(func() error {
		err := clientToRemote(ctx, carrier, conn)
		carrier.Close()
		conn.Close()
		return err
	})
	g.Go(func() error {
		err := remoteToClient(carrier, conn)
		carrier.Close()
		conn.Close()
		return err
	})

	return g.Wait()
}

// clientToRemote reads Trojan UDP records from the carrier and sends
// each payload to its addressed destination.
func clientToRemote(ctx context.Context, carrier io.Reader, conn net.PacketConn) error {
	decoder := trojan.NewPacketDecoder(carrier)
	for {
		pkt, err := decoder.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		ip, err := pkt.Address.Resolve(ctx)
		if err != nil {
			return err
		}
		dst := &net.UDPAddr{IP: ip, Port: int(pkt.Port)}
		if _, err := conn.WriteTo(pkt.Payload, dst); err != nil {
			return errors.New("failed to write udp datagram to destination").Base(err).WithKind(errors.KindConnectionReset)
		}
	}
}

// remoteToClient reads datagrams from conn and frames each as a Trojan
// UDP record written to the carrier.
func remoteToClient(carrier io.Writer, conn net.PacketConn) error {
	buf := make([]byte, udpReadBufferSize)
	for {
		n, raddr, err := conn.ReadFrom(buf)
		if err != nil {
			return err
		}

		udpAddr, ok := raddr.(*net.UDPAddr)
		if !ok {
			continue
		}
		var address addr.Address
		if ip4 := udpAddr.IP.To4(); ip4 != nil {
			address = addr.IPv4Address(ip4)
		} else {
			address = addr.IPv6Address(udpAddr.IP)
		}

		if err := trojan.WritePacket(carrier, address, addr.Port(udpAddr.Port), buf[:n]); err != nil {
			return err
		}
	}
}
