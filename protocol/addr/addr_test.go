package addr_test

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/protocol/addr"
)

func TestAddressPortRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		address addr.Address
		port    addr.Port
	}{
		{"ipv4", addr.IPv4Address(net.ParseIP("203.0.113.9")), 443},
		{"ipv6", addr.IPv6Address(net.ParseIP("2001:db8::1")), 8443},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, addr.WriteAddressPort(&buf, c.address, c.port))

			gotAddr, gotPort, err := addr.ReadAddressPort(&buf)
			require.NoError(t, err)
			assert.True(t, gotAddr.Equal(c.address))
			assert.Equal(t, c.port, gotPort)
		})
	}
}

func TestDomainAddressRoundTrip(t *testing.T) {
	address, err := addr.DomainAddress("example.com")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, addr.WriteAddressPort(&buf, address, 80))

	gotAddr, gotPort, err := addr.ReadAddressPort(&buf)
	require.NoError(t, err)
	assert.Equal(t, addr.Port(80), gotPort)
	assert.Equal(t, "example.com", gotAddr.Domain())
}

func TestDomainAddressRejectsOverlong(t *testing.T) {
	_, err := addr.DomainAddress(strings.Repeat("a", addr.MaxDomainLength+1))
	assert.Error(t, err)
}

func TestDomainAddressRejectsEmpty(t *testing.T) {
	_, err := addr.DomainAddress("")
	assert.Error(t, err)
}

func TestResolveNonDomainIsIdentity(t *testing.T) {
	ip := net.ParseIP("198.51.100.1")
	address := addr.IPv4Address(ip)

	resolved, err := address.Resolve(nil) //nolint:staticcheck // non-domain path never touches ctx
	require.NoError(t, err)
	assert.True(t, resolved.Equal(ip.To4()))
}
