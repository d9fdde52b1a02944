package trojan_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/protocol/addr"
	"github.com/cty123/trojan-relay/protocol/request"
	"github.com/cty123/trojan-relay/trojan"
)

func TestCredentialCheck(t *testing.T) {
	v := trojan.NewValidator("correct horse battery staple")
	good := trojan.DeriveCredential("correct horse battery staple")
	bad := trojan.DeriveCredential("wrong secret")

	assert.True(t, v.Check(good.Bytes()))
	assert.False(t, v.Check(bad.Bytes()))
	assert.False(t, v.Check([]byte("too short")))
}

func TestHeaderRoundTrip(t *testing.T) {
	cred := trojan.DeriveCredential("shared-secret")
	v := trojan.NewValidator("shared-secret")
	address := addr.IPv4Address(net.ParseIP("203.0.113.5"))

	var buf bytes.Buffer
	require.NoError(t, trojan.WriteHeader(&buf, cred, request.CommandConnect, address, 443))

	req, err := trojan.ParseHeader(&buf, v)
	require.NoError(t, err)
	assert.Equal(t, request.CommandConnect, req.Command)
	assert.Equal(t, request.TransportTCP, req.Transport)
	assert.Equal(t, addr.Port(443), req.Port)
	assert.True(t, req.Address.Equal(address))
}

func TestParseHeaderRejectsBadCredentialBeforeReadingRest(t *testing.T) {
	cred := trojan.DeriveCredential("shared-secret")
	v := trojan.NewValidator("different-secret")
	address := addr.IPv4Address(net.ParseIP("203.0.113.5"))

	var buf bytes.Buffer
	require.NoError(t, trojan.WriteHeader(&buf, cred, request.CommandConnect, address, 443))

	// Truncate everything after the credential: if ParseHeader tried to
	// read the command/address before checking auth it would fail with
	// an I/O error instead of the expected credential mismatch.
	truncated := bytes.NewReader(buf.Bytes()[:trojan.CredentialLength])

	_, err := trojan.ParseHeader(truncated, v)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "Trojan password mismatch")
}

func TestPacketRoundTrip(t *testing.T) {
	address := addr.IPv4Address(net.ParseIP("198.51.100.7"))
	payload := []byte("hello udp")

	var buf bytes.Buffer
	require.NoError(t, trojan.WritePacket(&buf, address, 53, payload))

	pkt, err := trojan.ReadPacket(&buf)
	require.NoError(t, err)
	assert.True(t, pkt.Address.Equal(address))
	assert.Equal(t, addr.Port(53), pkt.Port)
	assert.Equal(t, payload, pkt.Payload)
}

func TestPacketDecoderYieldsBackToBackRecords(t *testing.T) {
	address := addr.IPv4Address(net.ParseIP("198.51.100.7"))

	var buf bytes.Buffer
	require.NoError(t, trojan.WritePacket(&buf, address, 1, []byte("one")))
	require.NoError(t, trojan.WritePacket(&buf, address, 2, []byte("two")))
	require.NoError(t, trojan.WritePacket(&buf, address, 3, []byte("three")))

	decoder := trojan.NewPacketDecoder(&buf)

	first, err := decoder.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", string(first.Payload))

	second, err := decoder.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", string(second.Payload))

	third, err := decoder.Next()
	require.NoError(t, err)
	assert.Equal(t, "three", string(third.Payload))
}

func TestWritePacketRejectsOversizedPayload(t *testing.T) {
	address := addr.IPv4Address(net.ParseIP("198.51.100.7"))
	oversized := make([]byte, 8193)

	var buf bytes.Buffer
	err := trojan.WritePacket(&buf, address, 1, oversized)
	assert.Error(t, err)
}
