// Package inbound implements the TCP acceptor of spec §4.5 (C5): it
// wraps an accepted TCP connection in optional TLS, runs the SOCKS5 or
// Trojan handshake, authenticates, and yields the universal
// (InboundRequest, stream) pair the outbound handler consumes.
//
// Grounded on xray-core's proxy/socks/server.go and
// proxy/trojan/server.go connection-entry flow, trimmed of the
// dispatcher/routing/policy machinery those packages need as one proxy
// among many inside the full xray core.
package inbound

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/config"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
	"github.com/cty123/trojan-relay/socks"
	"github.com/cty123/trojan-relay/transport/stream"
	"github.com/cty123/trojan-relay/trojan"
)

// Acceptor is constructed once from the inbound config and is stateless
// between calls: concurrent Accept invocations share no mutable state
// (spec §4.5).
type Acceptor struct {
	advertisedPort addr.Port
	protocol       config.Protocol
	validator      *trojan.Validator // nil when protocol == SOCKS
	tlsConfig      *tls.Config       // nil when TLS is not configured
}

// New builds an Acceptor from the inbound config section.
func New(cfg config.Inbound, tlsConfig *tls.Config) (*Acceptor, error) {
	a := &Acceptor{
		advertisedPort: addr.Port(cfg.Port),
		protocol:       cfg.Protocol,
		tlsConfig:      tlsConfig,
	}
	switch cfg.Protocol {
	case config.ProtocolSOCKS:
	case config.ProtocolTrojan:
		a.validator = trojan.NewValidator(cfg.Secret)
	default:
		return nil, errors.New("unsupported inbound protocol: ", cfg.Protocol).WithKind(errors.KindUnsupported)
	}
	return a, nil
}

// Accept escalates conn to TLS if configured, then runs the configured
// protocol's handshake, returning the universal request and the
// (possibly TLS-wrapped) byte stream for the caller to relay against.
func (a *Acceptor) Accept(ctx context.Context, conn net.Conn) (request.Inbound, io.ReadWriteCloser, error) {
	var s io.ReadWriteCloser = stream.NewPlain(conn)

	if a.tlsConfig != nil {
		tlsStream, err := stream.NewServerTLS(ctx, conn, a.tlsConfig)
		if err != nil {
			conn.Close()
			return request.Inbound{}, nil, err
		}
		s = tlsStream
	}

	switch a.protocol {
	case config.ProtocolSOCKS:
		req, err := socks.Handshake(s, a.advertisedPort)
		if err != nil {
			s.Close()
			return request.Inbound{}, nil, err
		}
		return req, s, nil
	case config.ProtocolTrojan:
		req, err := trojan.ParseHeader(s, a.validator)
		if err != nil {
			s.Close()
			return request.Inbound{}, nil, err
		}
		return req, s, nil
	default:
		s.Close()
		return request.Inbound{}, nil, errors.New("unsupported inbound protocol: ", a.protocol).WithKind(errors.KindUnsupported)
	}
}
