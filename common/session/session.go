// Package session provides a per-connection correlation id, grounded on
// xray-core's use of github.com/google/uuid for identity throughout
// common/protocol/id.go.
package session

import "github.com/google/uuid"

// ID is a per-connection correlation id. The server prefixes the log line
// it writes when a connection's dispatch fails with it; access-log lines
// do not carry it.
type ID string

// NewID mints a fresh correlation id.
func NewID() ID {
	return ID(uuid.New().String())
}
