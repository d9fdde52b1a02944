// Package socks implements the minimal SOCKS5 ingress handshake used on
// the client-side edge (spec §4.2), grounded on xray-core's
// proxy/socks/server.go connection flow but trimmed of the
// dispatcher/policy/session machinery that package needs as one proxy
// among many inside the full xray core.
package socks

import (
	"bufio"
	"io"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
)

const (
	version5       byte = 0x05
	methodNoAuth   byte = 0x00
	replySucceeded byte = 0x00
)

// Handshake runs the SOCKS5 client-hello/request exchange on rw and
// returns the universal Inbound request it described. advertisedPort is
// echoed back in the request-ack per spec §4.2 step 3. Any short read is
// fatal for the connection, matching the teacher's "permissive on
// content, strict on framing" handling of the client hello.
func Handshake(rw io.ReadWriter, advertisedPort addr.Port) (request.Inbound, error) {
	r := bufio.NewReader(rw)

	if err := readClientHello(r); err != nil {
		return request.Inbound{}, err
	}
	if _, err := rw.Write([]byte{version5, methodNoAuth}); err != nil {
		return request.Inbound{}, errors.New("failed to write method selection").Base(err).WithKind(errors.KindConnectionReset)
	}

	req, err := readRequest(r)
	if err != nil {
		return request.Inbound{}, err
	}

	if err := writeRequestAck(rw, advertisedPort); err != nil {
		return request.Inbound{}, err
	}

	return req, nil
}

// readClientHello intentionally does not validate the method list: any
// byte sequence is accepted to stay permissive with existing clients
// (spec §9 Open Questions / Design Notes).
func readClientHello(r *bufio.Reader) error {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return errors.New("failed to read client hello header").Base(err).WithKind(errors.KindInvalidInput)
	}
	if head[0] != version5 {
		return errors.New("unsupported SOCKS version: ", head[0]).WithKind(errors.KindUnsupported)
	}
	nMethods := int(head[1])
	if nMethods > 0 {
		methods := make([]byte, nMethods)
		if _, err := io.ReadFull(r, methods); err != nil {
			return errors.New("failed to read client hello methods").Base(err).WithKind(errors.KindInvalidInput)
		}
	}
	return nil
}

func readRequest(r *bufio.Reader) (request.Inbound, error) {
	var head [3]byte // version, command, reserved
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return request.Inbound{}, errors.New("failed to read SOCKS5 request header").Base(err).WithKind(errors.KindInvalidInput)
	}
	if head[0] != version5 {
		return request.Inbound{}, errors.New("unsupported SOCKS version in request: ", head[0]).WithKind(errors.KindUnsupported)
	}

	var command request.Command
	switch head[1] {
	case byte(request.CommandConnect):
		command = request.CommandConnect
	case byte(request.CommandUDP):
		command = request.CommandUDP
	case byte(request.CommandBind):
		return request.Inbound{}, errors.New("BIND command is not supported").WithKind(errors.KindUnsupported)
	default:
		return request.Inbound{}, errors.New("unknown SOCKS5 command: ", head[1]).WithKind(errors.KindUnsupported)
	}

	address, port, err := addr.ReadAddressPort(r)
	if err != nil {
		return request.Inbound{}, err
	}

	return request.New(address, port, command, request.ProxySOCKS), nil
}

// writeRequestAck emits {version=5, rep=0, rsv=0, atype=IPv4,
// addr=127.0.0.1, port=advertised} and flushes, per spec §4.2 step 3.
func writeRequestAck(w io.Writer, advertisedPort addr.Port) error {
	head := []byte{version5, replySucceeded, 0x00}
	if _, err := w.Write(head); err != nil {
		return errors.New("failed to write request ack header").Base(err).WithKind(errors.KindConnectionReset)
	}
	loopback := addr.IPv4Address([]byte{127, 0, 0, 1})
	if err := addr.WriteAddressPort(w, loopback, advertisedPort); err != nil {
		return errors.New("failed to write request ack address").Base(err).WithKind(errors.KindConnectionReset)
	}
	// net.Conn writes are unbuffered, so the ack is already flushed to the
	// wire by the time WriteAddressPort returns.
	return nil
}
