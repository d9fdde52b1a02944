// Package server wires together the inbound acceptor, the outbound
// handler, and the three listener transports into the single running
// process described by spec §4.9 (C9): accept connections forever,
// dispatch each independently, and never let one connection's failure
// reach the accept loop.
//
// Grounded on xray-core's app/proxyman/inbound worker accept loop,
// trimmed to this process's single static inbound/outbound pair
// instead of xray's dynamic multi-inbound registry.
package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/cty123/trojan-relay/common/errors"
	"github.com/cty123/trojan-relay/common/log"
	"github.com/cty123/trojan-relay/common/session"
	"github.com/cty123/trojan-relay/config"
	"github.com/cty123/trojan-relay/inbound"
	"github.com/cty123/trojan-relay/outbound"
	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
	"github.com/cty123/trojan-relay/transport/grpc"
	"github.com/cty123/trojan-relay/transport/quicstream"
	"github.com/cty123/trojan-relay/transport/stream"
	"github.com/cty123/trojan-relay/trojan"
)

// Server owns the listener for the configured inbound mode and the
// handler for the configured outbound mode. Both are built once at
// startup and shared read-only across every connection (spec §5).
type Server struct {
	cfg       config.Inbound
	acceptor  *inbound.Acceptor
	out       *outbound.Handler
	validator *trojan.Validator
	tlsConfig *tls.Config
	cert      tls.Certificate
	hasCert   bool
}

// New builds a Server from a loaded config document.
func New(cfg *config.Root) (*Server, error) {
	s := &Server{cfg: cfg.Inbound}

	out, err := outbound.New(cfg.Outbound)
	if err != nil {
		return nil, err
	}
	s.out = out

	if cfg.Inbound.TLS != nil {
		cert, err := stream.LoadCertificate(cfg.Inbound.TLS.CertPath, cfg.Inbound.TLS.KeyPath)
		if err != nil {
			return nil, err
		}
		s.cert = cert
		s.hasCert = true
		s.tlsConfig = stream.ServerTLSConfig(cert, []string{"h2", "http/1.1"})
	}

	switch cfg.Inbound.Mode {
	case config.ModeTCP, config.ModeDirect:
		acceptor, err := inbound.New(cfg.Inbound, s.tlsConfig)
		if err != nil {
			return nil, err
		}
		s.acceptor = acceptor
	case config.ModeGRPC, config.ModeQUIC:
		if cfg.Inbound.Protocol != config.ProtocolTrojan {
			return nil, errors.New("GRPC and QUIC inbound modes require the TROJAN protocol").WithKind(errors.KindInvalidInput)
		}
		if !s.hasCert {
			return nil, errors.New("GRPC and QUIC inbound modes require tls material").WithKind(errors.KindInvalidInput)
		}
		s.validator = trojan.NewValidator(cfg.Inbound.Secret)
	default:
		return nil, errors.New("unsupported inbound mode: ", cfg.Inbound.Mode).WithKind(errors.KindUnsupported)
	}

	return s, nil
}

// Run blocks serving the configured inbound mode until ctx is canceled
// or the listener fails to bind.
func (s *Server) Run(ctx context.Context) error {
	bindAddr := net.JoinHostPort(s.cfg.Address, addr.Port(s.cfg.Port).String())

	switch s.cfg.Mode {
	case config.ModeTCP, config.ModeDirect:
		return s.serveTCP(ctx, bindAddr)
	case config.ModeGRPC:
		return grpcproto.Listen(ctx, bindAddr, s.cert, s.handleStream)
	case config.ModeQUIC:
		return quicstream.Listen(ctx, bindAddr, s.tlsConfig, s.handleStream)
	default:
		return errors.New("unsupported inbound mode: ", s.cfg.Mode).WithKind(errors.KindUnsupported)
	}
}

// serveTCP runs the plain TCP accept loop for the TCP/DIRECT inbound
// modes, spawning one goroutine per accepted connection.
func (s *Server) serveTCP(ctx context.Context, bindAddr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", bindAddr)
	if err != nil {
		return errors.New("failed to bind inbound listener: ", bindAddr).Base(err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warning("failed to accept connection: ", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

// serveConn handles a single accepted TCP connection end to end. Any
// failure is logged and the connection is closed; it never propagates
// back to the accept loop (spec §4.9). Every connection gets its own
// correlation id, which prefixes the log line written when dispatch
// fails; the access-log line does not include it.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	id := session.NewID()
	peer := conn.RemoteAddr().String()

	req, stream, err := s.acceptor.Accept(ctx, conn)
	if err != nil {
		log.Record(&log.AccessMessage{From: peer, Status: log.AccessRejected, Reason: err})
		log.FromError(err)
		return
	}
	defer stream.Close()
	log.Record(&log.AccessMessage{From: peer, To: req.Address.String() + ":" + req.Port.String(), Status: log.AccessAccepted})

	if err := s.out.Dispatch(ctx, stream, req); err != nil {
		log.Info(id, " ", err.Error())
	}
}

// handleStream is the per-tunnel handler shared by the GRPC and QUIC
// listeners (spec §4.7/§4.8): both carry already-escalated streams that
// speak Trojan directly, so it parses and authenticates, then dispatches
// to the outbound handler exactly like the TCP path.
func (s *Server) handleStream(ctx context.Context, conn io.ReadWriteCloser, peer net.Addr) error {
	id := session.NewID()
	from := "unknown"
	if peer != nil {
		from = peer.String()
	}

	req, err := trojan.ParseHeader(conn, s.validator)
	if err != nil {
		log.Record(&log.AccessMessage{From: from, Status: log.AccessRejected, Reason: err})
		return err
	}
	if req.Command == request.CommandBind {
		return errors.New("unsupported command over tunneled stream").WithKind(errors.KindUnsupported)
	}
	log.Record(&log.AccessMessage{From: from, To: req.Address.String() + ":" + req.Port.String(), Status: log.AccessAccepted})

	if err := s.out.Dispatch(ctx, conn, req); err != nil {
		log.Info(id, " ", err.Error())
		return err
	}
	return nil
}
