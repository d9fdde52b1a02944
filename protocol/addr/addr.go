// Package addr implements the semantic address/port types shared by the
// SOCKS5 and Trojan wire formats, and the atype-tagged codec both of
// them use to read and write an (address, port) pair.
//
// Grounded on xray-core's proxy/trojan/protocol.go addrParser usage
// (protocol.NewAddressParser/AddressFamilyByte/ReadAddressPort/
// WriteAddressPort) and common/net's Address/Port split.
package addr

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"strconv"

	"github.com/cty123/trojan-relay/common/errors"
)

// Family identifies which variant of the Address tagged union is active.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyDomain
)

// Type is the one-byte atype tag used on the wire.
type Type byte

const (
	TypeIPv4   Type = 1
	TypeDomain Type = 3
	TypeIPv6   Type = 4
)

// MaxDomainLength is the largest Domain address the 8-bit wire length
// prefix can express.
const MaxDomainLength = 255

// Address is the tagged union {IPv4(u32) | IPv6(u128) | Domain(bytes)}.
// It is immutable once constructed.
type Address struct {
	family Family
	ip     net.IP // 4 or 16 bytes, for FamilyIPv4/FamilyIPv6
	domain string // for FamilyDomain
}

// IPv4Address builds an Address from a 4-byte (or net.IP-mapped) IPv4.
func IPv4Address(ip net.IP) Address {
	v4 := ip.To4()
	if v4 == nil {
		v4 = ip
	}
	return Address{family: FamilyIPv4, ip: append(net.IP{}, v4...)}
}

// IPv6Address builds an Address from a 16-byte IPv6.
func IPv6Address(ip net.IP) Address {
	v6 := ip.To16()
	return Address{family: FamilyIPv6, ip: append(net.IP{}, v6...)}
}

// DomainAddress builds an Address from a domain name. Construction
// rejects names longer than MaxDomainLength, per spec §4.1.
func DomainAddress(name string) (Address, error) {
	if len(name) == 0 || len(name) > MaxDomainLength {
		return Address{}, errors.New("invalid domain address length: ", len(name)).WithKind(errors.KindInvalidInput)
	}
	return Address{family: FamilyDomain, domain: name}, nil
}

// Family reports which variant is active.
func (a Address) Family() Family { return a.family }

// IP returns the raw IP bytes for the IPv4/IPv6 variants.
func (a Address) IP() net.IP { return a.ip }

// Domain returns the domain name for the Domain variant.
func (a Address) Domain() string { return a.domain }

// Equal reports structural equality.
func (a Address) Equal(b Address) bool {
	if a.family != b.family {
		return false
	}
	switch a.family {
	case FamilyDomain:
		return a.domain == b.domain
	default:
		return a.ip.Equal(b.ip)
	}
}

func (a Address) String() string {
	switch a.family {
	case FamilyDomain:
		return a.domain
	default:
		return a.ip.String()
	}
}

// Type returns the wire atype tag for this address.
func (a Address) Type() Type {
	switch a.family {
	case FamilyIPv4:
		return TypeIPv4
	case FamilyIPv6:
		return TypeIPv6
	default:
		return TypeDomain
	}
}

// Resolve turns a Domain address into a dialable IP, taking the first
// result of a DNS lookup. It is only ever called from the outbound dial
// path, never at parse time (spec §4.1). Non-Domain addresses resolve to
// themselves immediately.
func (a Address) Resolve(ctx context.Context) (net.IP, error) {
	if a.family != FamilyDomain {
		return a.ip, nil
	}
	var resolver net.Resolver
	ips, err := resolver.LookupIP(ctx, "ip", a.domain)
	if err != nil {
		return nil, errors.New("failed to resolve domain: ", a.domain).Base(err).WithKind(errors.KindAddrNotAvailable)
	}
	if len(ips) == 0 {
		return nil, errors.New("no address found for domain: ", a.domain).WithKind(errors.KindAddrNotAvailable)
	}
	return ips[0], nil
}

// Port is a 16-bit TCP/UDP port.
type Port uint16

func (p Port) String() string { return strconv.Itoa(int(p)) }

// ReadAddressPort reads one atype-tagged (address, port) pair: atype (1
// byte) -> address (4, 16, or length-prefixed domain bytes) -> port (2
// bytes, big-endian). Used by both the SOCKS5 request and the Trojan TCP
// header / UDP packet envelope, which all share this layout.
func ReadAddressPort(r io.Reader) (Address, Port, error) {
	var atype [1]byte
	if _, err := io.ReadFull(r, atype[:]); err != nil {
		return Address{}, 0, errors.New("failed to read address type").Base(err).WithKind(errors.KindInvalidInput)
	}

	var address Address
	switch Type(atype[0]) {
	case TypeIPv4:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Address{}, 0, errors.New("failed to read IPv4 address").Base(err).WithKind(errors.KindInvalidInput)
		}
		address = IPv4Address(net.IP(b[:]))
	case TypeIPv6:
		var b [16]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Address{}, 0, errors.New("failed to read IPv6 address").Base(err).WithKind(errors.KindInvalidInput)
		}
		address = IPv6Address(net.IP(b[:]))
	case TypeDomain:
		var l [1]byte
		if _, err := io.ReadFull(r, l[:]); err != nil {
			return Address{}, 0, errors.New("failed to read domain length").Base(err).WithKind(errors.KindInvalidInput)
		}
		n := int(l[0])
		if n == 0 {
			return Address{}, 0, errors.New("domain address length is zero").WithKind(errors.KindInvalidInput)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Address{}, 0, errors.New("failed to read domain").Base(err).WithKind(errors.KindInvalidInput)
		}
		var err error
		address, err = DomainAddress(string(buf))
		if err != nil {
			return Address{}, 0, err
		}
	default:
		return Address{}, 0, errors.New("unsupported address type: ", atype[0]).WithKind(errors.KindUnsupported)
	}

	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return Address{}, 0, errors.New("failed to read port").Base(err).WithKind(errors.KindInvalidInput)
	}
	return address, Port(binary.BigEndian.Uint16(portBuf[:])), nil
}

// WriteAddressPort is the serialization counterpart of ReadAddressPort.
func WriteAddressPort(w io.Writer, a Address, p Port) error {
	switch a.family {
	case FamilyIPv4:
		if _, err := w.Write([]byte{byte(TypeIPv4)}); err != nil {
			return err
		}
		if _, err := w.Write(a.ip.To4()); err != nil {
			return err
		}
	case FamilyIPv6:
		if _, err := w.Write([]byte{byte(TypeIPv6)}); err != nil {
			return err
		}
		if _, err := w.Write(a.ip.To16()); err != nil {
			return err
		}
	case FamilyDomain:
		if len(a.domain) == 0 || len(a.domain) > MaxDomainLength {
			return errors.New("invalid domain address length: ", len(a.domain)).WithKind(errors.KindInvalidInput)
		}
		if _, err := w.Write([]byte{byte(TypeDomain), byte(len(a.domain))}); err != nil {
			return err
		}
		if _, err := io.WriteString(w, a.domain); err != nil {
			return err
		}
	default:
		return errors.New("unsupported address family").WithKind(errors.KindUnsupported)
	}

	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], uint16(p))
	_, err := w.Write(portBuf[:])
	return err
}
