package socks_test

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
	"github.com/cty123/trojan-relay/socks"
)

func TestHandshakeConnect(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	clientDone := make(chan error, 1)
	go func() {
		clientDone <- func() error {
			if _, err := clientSide.Write([]byte{0x05, 0x01, 0x00}); err != nil {
				return err
			}

			reply := make([]byte, 2)
			if _, err := io.ReadFull(clientSide, reply); err != nil {
				return err
			}

			var buf []byte
			buf = append(buf, 0x05, 0x01, 0x00, 0x01) // ver, connect, rsv, atype=ipv4
			buf = append(buf, 93, 184, 216, 34)        // example.com's IP, arbitrary for this test
			buf = append(buf, 0x00, 0x50)              // port 80
			if _, err := clientSide.Write(buf); err != nil {
				return err
			}

			// The ack is written as several small, unbuffered writes
			// (header, atype, address, port); io.ReadFull drains all of
			// them rather than returning after the first.
			ack := make([]byte, 10)
			_, err := io.ReadFull(clientSide, ack)
			return err
		}()
	}()

	req, err := socks.Handshake(serverSide, addr.Port(1080))
	require.NoError(t, err)
	require.NoError(t, <-clientDone)

	assert.Equal(t, request.CommandConnect, req.Command)
	assert.Equal(t, request.TransportTCP, req.Transport)
	assert.Equal(t, addr.Port(80), req.Port)
	assert.Equal(t, "93.184.216.34", req.Address.String())
}

func TestHandshakeRejectsBind(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	clientDone := make(chan struct{})
	go func() {
		defer close(clientDone)
		clientSide.Write([]byte{0x05, 0x01, 0x00})
		reply := make([]byte, 2)
		io.ReadFull(clientSide, reply)
		clientSide.Write([]byte{0x05, 0x02, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50})
	}()

	_, err := socks.Handshake(serverSide, addr.Port(1080))
	assert.Error(t, err)
	<-clientDone
}
