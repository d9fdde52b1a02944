// Package outbound implements the TCP handler of spec §4.6 (C6): given
// an InboundRequest and its stream, it establishes the outbound leg in
// one of the four modes and runs the bidirectional relay.
//
// Grounded on xray-core's proxy/trojan/client.go (TCP/TLS dial, header
// write, two-task relay) and proxy/freedom (direct dial), trimmed of
// the policy/stats/dispatcher machinery those packages need as one
// outbound among many inside the full xray core.
package outbound

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/config"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
	"github.com/cty123/trojan-relay/relay"
	"github.com/cty123/trojan-relay/transport/grpc"
	"github.com/cty123/trojan-relay/transport/quicstream"
	"github.com/cty123/trojan-relay/transport/stream"
	"github.com/cty123/trojan-relay/trojan"
)

// Handler is constructed once from the outbound config and is read-only
// thereafter; it is freely shared across connection tasks (spec §5).
type Handler struct {
	mode       config.Mode
	remoteAddr string // host:port of the configured remote relay (TCP/QUIC/GRPC modes)
	tlsConfig  *tls.Config
	credential trojan.Credential
}

// New builds a Handler from the outbound config section.
func New(cfg config.Outbound) (*Handler, error) {
	h := &Handler{mode: cfg.Mode}

	switch cfg.Mode {
	case config.ModeDirect:
		return h, nil
	case config.ModeTCP, config.ModeQUIC, config.ModeGRPC:
		if cfg.Address == "" || cfg.Port == 0 {
			return nil, errors.New("outbound requires address and port for mode: ", cfg.Mode).WithKind(errors.KindInvalidInput)
		}
		h.remoteAddr = net.JoinHostPort(cfg.Address, addr.Port(cfg.Port).String())
		h.credential = trojan.DeriveCredential(cfg.Secret)
		if cfg.TLS != nil {
			nextProtos := []string{"http/1.1"}
			if cfg.Mode == config.ModeGRPC {
				nextProtos = []string{"h2"}
			}
			h.tlsConfig = stream.ClientTLSConfig(cfg.TLS.HostName, cfg.TLS.AllowInsecure, nextProtos)
		}
		return h, nil
	default:
		return nil, errors.New("unsupported outbound mode: ", cfg.Mode).WithKind(errors.KindUnsupported)
	}
}

// Dispatch establishes the outbound leg for req over inbound and runs the
// relay until either side finishes.
func (h *Handler) Dispatch(ctx context.Context, inbound io.ReadWriteCloser, req request.Inbound) error {
	switch h.mode {
	case config.ModeDirect:
		return h.dispatchDirect(ctx, inbound, req)
	case config.ModeTCP:
		return h.dispatchEscalated(ctx, inbound, req, h.dialTCP)
	case config.ModeQUIC:
		return h.dispatchEscalated(ctx, inbound, req, h.dialQUIC)
	case config.ModeGRPC:
		return h.dispatchEscalated(ctx, inbound, req, h.dialGRPC)
	default:
		return errors.New("unsupported outbound mode: ", h.mode).WithKind(errors.KindUnsupported)
	}
}

// dispatchDirect treats inbound as already Trojan-framed (we are the
// server edge) and forwards to the request's destination.
func (h *Handler) dispatchDirect(ctx context.Context, inbound io.ReadWriteCloser, req request.Inbound) error {
	switch req.Command {
	case request.CommandConnect:
		ip, err := req.Address.Resolve(ctx)
		if err != nil {
			return err
		}
		dialer := net.Dialer{}
		outConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), req.Port.String()))
		if err != nil {
			return errors.New("failed to dial outbound destination").Base(err).WithKind(errors.KindConnectionRefused)
		}
		return relay.Bidirectional(inbound, outConn)
	case request.CommandUDP:
		conn, err := net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			return errors.New("failed to bind outbound udp socket").Base(err).WithKind(errors.KindConnectionRefused)
		}
		return relay.BridgeUDP(ctx, inbound, conn)
	default:
		return errors.New("unsupported command for direct outbound").WithKind(errors.KindUnsupported)
	}
}

// dialFunc opens the escalated carrier to the remote relay.
type dialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// dispatchEscalated treats inbound as plaintext requiring Trojan
// encapsulation (we are the client edge): it dials the carrier, writes
// the Trojan handshake, then relays.
func (h *Handler) dispatchEscalated(ctx context.Context, inbound io.ReadWriteCloser, req request.Inbound, dial dialFunc) error {
	carrier, err := dial(ctx)
	if err != nil {
		return err
	}

	if err := trojan.WriteHeader(carrier, h.credential, req.Command, req.Address, req.Port); err != nil {
		carrier.Close()
		return err
	}

	if req.Command == request.CommandUDP {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			carrier.Close()
			return errors.New("failed to bind local udp relay socket").Base(err).WithKind(errors.KindConnectionRefused)
		}
		return relay.BridgeUDP(ctx, carrier, conn)
	}

	return relay.Bidirectional(inbound, carrier)
}

func (h *Handler) dialTCP(ctx context.Context) (io.ReadWriteCloser, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", h.remoteAddr)
	if err != nil {
		return nil, errors.New("failed to dial remote relay").Base(err).WithKind(errors.KindConnectionRefused)
	}
	if h.tlsConfig == nil {
		return conn, nil
	}
	s, err := stream.NewClientTLS(ctx, conn, h.tlsConfig)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (h *Handler) dialQUIC(ctx context.Context) (io.ReadWriteCloser, error) {
	tlsConfig := h.tlsConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	return quicstream.Dial(ctx, h.remoteAddr, tlsConfig)
}

func (h *Handler) dialGRPC(ctx context.Context) (io.ReadWriteCloser, error) {
	tlsConfig := h.tlsConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	return grpcproto.Dial(ctx, h.remoteAddr, tlsConfig)
}
