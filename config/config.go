// Package config loads the JSON configuration file described in spec
// §6. Configuration loading, CLI parsing, and PEM loading are external
// collaborators the core pipeline only consumes through the types
// below; this package exists because nothing else in the retrieved
// corpus supplies it (see SPEC_FULL.md §5.3). Grounded on xray-core's
// main/confloader (stdin fallback) and main/json (schema shape).
package config

import (
	"encoding/json"
	"io"
	"os"

	"github.com/cty123/trojan-relay/common/errors"
)

// Mode is the transport mode a listener or dialer operates in.
type Mode string

const (
	ModeTCP    Mode = "TCP"
	ModeGRPC   Mode = "GRPC"
	ModeQUIC   Mode = "QUIC"
	ModeDirect Mode = "DIRECT"
)

// Protocol is the framing layered on top of the transport mode.
type Protocol string

const (
	ProtocolSOCKS  Protocol = "SOCKS"
	ProtocolTrojan Protocol = "TROJAN"
	ProtocolDirect Protocol = "DIRECT"
)

// TLS holds PEM material paths for the inbound (server) side.
type TLS struct {
	CertPath string `json:"cert_path"`
	KeyPath  string `json:"key_path"`
}

// ClientTLS holds the outbound (client) side TLS knobs.
type ClientTLS struct {
	HostName      string `json:"host_name"`
	AllowInsecure bool   `json:"allow_insecure"`
}

// Inbound is the `inbound` top-level config object.
type Inbound struct {
	Mode     Mode     `json:"mode"`
	Protocol Protocol `json:"protocol"`
	Address  string   `json:"address"`
	Port     uint16   `json:"port"`
	Secret   string   `json:"secret,omitempty"`
	TLS      *TLS     `json:"tls,omitempty"`
}

// Outbound is the `outbound` top-level config object.
type Outbound struct {
	Mode     Mode       `json:"mode"`
	Protocol Protocol   `json:"protocol"`
	Address  string     `json:"address,omitempty"`
	Port     uint16     `json:"port,omitempty"`
	Secret   string     `json:"secret,omitempty"`
	TLS      *ClientTLS `json:"tls,omitempty"`
}

// Root is the top-level config document.
type Root struct {
	Inbound  Inbound  `json:"inbound"`
	Outbound Outbound `json:"outbound"`
}

// DefaultPath is used when no -c/--config flag is given.
const DefaultPath = "./config/config.json"

// Load reads and parses the config file at path. An empty path falls
// back to stdin, mirroring confloader.LoadConfig's behavior when no
// loader/path is configured.
func Load(path string) (*Root, error) {
	var r io.Reader
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.New("failed to open config file: ", path).Base(err).WithKind(errors.KindInvalidInput)
		}
		defer f.Close()
		r = f
	}

	var root Root
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, errors.New("failed to parse config").Base(err).WithKind(errors.KindInvalidInput)
	}
	return &root, nil
}
