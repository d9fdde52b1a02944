package relay_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/relay"
	"github.com/cty123/trojan-relay/trojan"
)

// pipeConn adapts a net.Conn half of an in-memory pipe to
// io.ReadWriteCloser, which is all Bidirectional needs.
type pipeConn struct {
	net.Conn
}

func TestBidirectionalPreservesBytes(t *testing.T) {
	aServer, aClient := net.Pipe()
	bServer, bClient := net.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- relay.Bidirectional(pipeConn{aServer}, pipeConn{bServer})
	}()

	go func() {
		aClient.Write([]byte("ping"))
		aClient.Close()
	}()

	buf := make([]byte, 4)
	n, err := io.ReadFull(bClient, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	bClient.Close()

	// Once the a->b direction hits EOF it closes both sides, which
	// interrupts the still-blocked b->a read; Bidirectional only
	// guarantees it returns promptly, not that the interrupted
	// direction's error is nil.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Bidirectional did not return after both sides closed")
	}
}

func TestBridgeUDPRoundTrips(t *testing.T) {
	echo, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer echo.Close()

	go func() {
		buf := make([]byte, 1500)
		for {
			n, raddr, err := echo.ReadFromUDP(buf)
			if err != nil {
				return
			}
			echo.WriteToUDP(buf[:n], raddr)
		}
	}()
	echoAddr := echo.LocalAddr().(*net.UDPAddr)

	carrierServer, carrierClient := net.Pipe()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)

	bridgeErr := make(chan error, 1)
	go func() {
		bridgeErr <- relay.BridgeUDP(context.Background(), pipeConn{carrierServer}, conn)
	}()

	dest := addr.IPv4Address(echoAddr.IP)
	require.NoError(t, trojan.WritePacket(carrierClient, dest, addr.Port(echoAddr.Port), []byte("echo me")))

	decoder := trojan.NewPacketDecoder(carrierClient)
	pkt, err := decoder.Next()
	require.NoError(t, err)
	assert.Equal(t, "echo me", string(pkt.Payload))

	carrierClient.Close()
	select {
	case <-bridgeErr:
	case <-time.After(2 * time.Second):
		t.Fatal("BridgeUDP did not return after carrier closed")
	}
}
