package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cty123/trojan-relay/config"
)

const sampleConfig = `{
	"inbound": {
		"mode": "TCP",
		"protocol": "TROJAN",
		"address": "0.0.0.0",
		"port": 443,
		"secret": "shared-secret",
		"tls": {"cert_path": "cert.pem", "key_path": "key.pem"}
	},
	"outbound": {
		"mode": "DIRECT",
		"protocol": "DIRECT"
	}
}`

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	root, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ModeTCP, root.Inbound.Mode)
	assert.Equal(t, config.ProtocolTrojan, root.Inbound.Protocol)
	assert.EqualValues(t, 443, root.Inbound.Port)
	assert.Equal(t, config.ModeDirect, root.Outbound.Mode)
	require.NotNil(t, root.Inbound.TLS)
	assert.Equal(t, "cert.pem", root.Inbound.TLS.CertPath)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}
