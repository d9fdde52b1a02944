package outbound_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/config"
	"github.com/cty123/trojan-relay/outbound"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
)

func TestDirectConnectRelaysBothDirections(t *testing.T) {
	echoListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer echoListener.Close()

	go func() {
		conn, err := echoListener.Accept()
		if err != nil {
			return
		}
		io.Copy(conn, conn)
	}()

	h, err := outbound.New(config.Outbound{Mode: config.ModeDirect})
	require.NoError(t, err)

	echoAddr := echoListener.Addr().(*net.TCPAddr)
	req := request.New(addr.IPv4Address(echoAddr.IP), addr.Port(echoAddr.Port), request.CommandConnect, request.ProxyTrojan)

	inboundServer, inboundClient := net.Pipe()
	defer inboundClient.Close()

	dispatchDone := make(chan error, 1)
	go func() {
		dispatchDone <- h.Dispatch(context.Background(), inboundServer, req)
	}()

	inboundClient.Write([]byte("round trip"))
	buf := make([]byte, len("round trip"))
	_, err = io.ReadFull(inboundClient, buf)
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(buf))

	inboundClient.Close()
	select {
	case <-dispatchDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return after inbound closed")
	}
}

func TestNewRejectsEscalatedModeWithoutAddress(t *testing.T) {
	_, err := outbound.New(config.Outbound{Mode: config.ModeTCP})
	assert.Error(t, err)
}
