// Package trojan implements the Trojan TCP header and UDP packet wire
// formats (spec §4.3/§8), grounded on xray-core's
// proxy/trojan/protocol.go (ConnReader/ConnWriter/PacketReader/
// PacketWriter), adapted to the protocol-neutral request.Inbound type
// and carrying the spec's explicit maximum-payload and
// authenticate-before-dial ordering.
package trojan

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
)

var crlf = []byte{'\r', '\n'}

const (
	commandTCP byte = 1
	commandUDP byte = 3

	// maxPacketPayload bounds a single Trojan UDP record's payload, per
	// spec §3 ("payload-length (u16 big-endian, ≤ 8192)"). Enforced at
	// parse time so an oversized length field is rejected immediately
	// rather than silently truncated (spec §9 Open Questions).
	maxPacketPayload = 8192
)

func commandByte(c request.Command) byte {
	if c == request.CommandUDP {
		return commandUDP
	}
	return commandTCP
}

// WriteHeader writes the client-side Trojan handshake: credential, CRLF,
// command, atype, address, port, CRLF, in a single burst (spec §4.3
// "Handshake (client side)"). The whole header is assembled in memory
// first so exactly one Write reaches w.
func WriteHeader(w io.Writer, cred Credential, command request.Command, address addr.Address, port addr.Port) error {
	var buffer bytes.Buffer
	buffer.Write(cred.Bytes())
	buffer.Write(crlf)
	buffer.WriteByte(commandByte(command))
	if err := addr.WriteAddressPort(&buffer, address, port); err != nil {
		return errors.New("failed to encode trojan header address").Base(err)
	}
	buffer.Write(crlf)

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return errors.New("failed to write trojan header").Base(err).WithKind(errors.KindConnectionReset)
	}
	return nil
}

// ParseHeader reads and authenticates the server-side Trojan handshake.
// Authentication happens strictly before the address/command are even
// looked at returning to the caller: the credential is read and checked
// first, and on mismatch the function returns immediately without
// touching the rest of the stream, so no outbound resource is ever
// initiated for an unauthenticated connection (spec §5 "Authentication
// ordering").
func ParseHeader(r io.Reader, v *Validator) (request.Inbound, error) {
	var cred [CredentialLength]byte
	if _, err := io.ReadFull(r, cred[:]); err != nil {
		return request.Inbound{}, errors.New("failed to read trojan credential").Base(err).WithKind(errors.KindInvalidInput)
	}
	if !v.Check(cred[:]) {
		return request.Inbound{}, errors.New("Trojan password mismatch").WithKind(errors.KindInvalidData).AtWarning()
	}

	var afterCred [3]byte // crlf + command
	if _, err := io.ReadFull(r, afterCred[:]); err != nil {
		return request.Inbound{}, errors.New("failed to read trojan command").Base(err).WithKind(errors.KindInvalidInput)
	}

	var command request.Command
	switch afterCred[2] {
	case commandUDP:
		command = request.CommandUDP
	case commandTCP:
		command = request.CommandConnect
	default:
		return request.Inbound{}, errors.New("unsupported trojan command: ", afterCred[2]).WithKind(errors.KindUnsupported)
	}

	address, port, err := addr.ReadAddressPort(r)
	if err != nil {
		return request.Inbound{}, err
	}

	var tail [2]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return request.Inbound{}, errors.New("failed to read trailing crlf").Base(err).WithKind(errors.KindInvalidInput)
	}

	return request.New(address, port, command, request.ProxyTrojan), nil
}

// Packet is one self-delimiting Trojan UDP record (spec §3).
type Packet struct {
	Address addr.Address
	Port    addr.Port
	Payload []byte
}

// WritePacket encodes and writes one Trojan UDP record.
func WritePacket(w io.Writer, address addr.Address, port addr.Port, payload []byte) error {
	if len(payload) > maxPacketPayload {
		return errors.New("udp payload exceeds maximum record size: ", len(payload)).WithKind(errors.KindInvalidInput)
	}

	var buffer bytes.Buffer
	if err := addr.WriteAddressPort(&buffer, address, port); err != nil {
		return errors.New("failed to encode udp record address").Base(err)
	}
	var lengthBuf [2]byte
	binary.BigEndian.PutUint16(lengthBuf[:], uint16(len(payload)))
	buffer.Write(lengthBuf[:])
	buffer.Write(crlf)
	buffer.Write(payload)

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return errors.New("failed to write udp record").Base(err).WithKind(errors.KindConnectionReset)
	}
	return nil
}

// ReadPacket reads exactly one Trojan UDP record from r, blocking until
// the full record (including its payload) is available. A short read in
// any fixed-size field is fatal, per spec §4.3.
func ReadPacket(r io.Reader) (*Packet, error) {
	address, port, err := addr.ReadAddressPort(r)
	if err != nil {
		return nil, err
	}

	var lengthBuf [2]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, errors.New("failed to read udp payload length").Base(err).WithKind(errors.KindInvalidInput)
	}
	length := int(binary.BigEndian.Uint16(lengthBuf[:]))
	if length > maxPacketPayload {
		return nil, errors.New("udp record payload length exceeds maximum: ", length).WithKind(errors.KindInvalidInput)
	}

	var sep [2]byte
	if _, err := io.ReadFull(r, sep[:]); err != nil {
		return nil, errors.New("failed to read udp record crlf").Base(err).WithKind(errors.KindInvalidInput)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.New("failed to read udp record payload").Base(err).WithKind(errors.KindInvalidInput)
	}

	return &Packet{Address: address, Port: port, Payload: payload}, nil
}

// PacketDecoder incrementally drains a stream of back-to-back Trojan UDP
// records, buffering internally so that when a read from the carrier
// returns several queued records at once, each is yielded in order
// without a re-read from the socket (spec §9 "UDP envelope codec" /
// §8 "UDP record self-delimitation"). It is a thin bufio.Reader wrapper:
// bufio already buffers the underlying reads, so Next() below simply
// reuses ReadPacket against that shared buffer.
type PacketDecoder struct {
	r *bufio.Reader
}

// NewPacketDecoder wraps r for incremental record-by-record decoding.
func NewPacketDecoder(r io.Reader) *PacketDecoder {
	return &PacketDecoder{r: bufio.NewReader(r)}
}

// Next blocks until one full record is available and returns it. Trailing
// partial bytes of a not-yet-complete next record remain buffered and are
// never consumed until they form a complete record.
func (d *PacketDecoder) Next() (*Packet, error) {
	return ReadPacket(d.r)
}
