// Package request defines the universal, protocol-neutral InboundRequest
// that both the SOCKS5 and Trojan front ends produce and that the
// outbound handler consumes, per spec §3/§4.1.
package request

import "github.com/cty123/trojan-relay/protocol/addr"

// Command is the requested operation.
type Command byte

const (
	CommandConnect Command = 1
	CommandBind    Command = 2
	CommandUDP     Command = 3
)

// TransportProtocol is the carrier-level protocol for the relayed data.
type TransportProtocol int

const (
	TransportTCP TransportProtocol = iota
	TransportUDP
)

// ProxyProtocol records which front end produced the request.
type ProxyProtocol int

const (
	ProxySOCKS ProxyProtocol = iota
	ProxyTrojan
	ProxyDirect
)

// Inbound is the universal request: address/port of the destination,
// the requested command, the transport it will run over, and which
// front end produced it. It is immutable after construction.
type Inbound struct {
	Address   addr.Address
	Port      addr.Port
	Command   Command
	Transport TransportProtocol
	Proxy     ProxyProtocol
}

// New builds an Inbound request, deriving Transport from Command.
func New(address addr.Address, port addr.Port, command Command, proxy ProxyProtocol) Inbound {
	transport := TransportTCP
	if command == CommandUDP {
		transport = TransportUDP
	}
	return Inbound{
		Address:   address,
		Port:      port,
		Command:   command,
		Transport: transport,
		Proxy:     proxy,
	}
}
