// Credential derivation and the single-secret validator, grounded on
// xray-core's proxy/trojan/validator.go registry shape but narrowed to
// the single-shared-secret case spec §3 Non-goals call for.
package trojan

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// CredentialLength is the fixed size of the hex-encoded SHA-224 digest
// that prefixes every Trojan TCP header.
const CredentialLength = 56

// Credential is the 56-byte ASCII-hex SHA-224 digest of a shared secret.
type Credential [CredentialLength]byte

// DeriveCredential hashes a plaintext secret into its wire credential.
func DeriveCredential(secret string) Credential {
	sum := sha256.Sum224([]byte(secret))
	var c Credential
	hex.Encode(c[:], sum[:])
	return c
}

// Bytes returns the credential's raw wire bytes.
func (c Credential) Bytes() []byte { return c[:] }

// Validator holds the process-wide credential configured for this
// process and compares presented credentials against it in constant
// time, per spec §3/§8 ("Credential comparison is constant-time").
type Validator struct {
	want Credential
}

// NewValidator builds a Validator for the given plaintext secret.
func NewValidator(secret string) *Validator {
	return &Validator{want: DeriveCredential(secret)}
}

// Check reports whether presented matches the configured credential.
// Comparison uses crypto/subtle.ConstantTimeCompare so that rejection
// latency does not leak which byte of the credential first diverged.
func (v *Validator) Check(presented []byte) bool {
	if len(presented) != CredentialLength {
		return false
	}
	return subtle.ConstantTimeCompare(v.want[:], presented) == 1
}
