// Package log provides the stderr access/error logging used across the
// relay, grounded on xray-core's common/log + app/log split between a
// structured AccessMessage and free-form severity lines.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cty123/trojan-relay/common/errors"
)

// AccessStatus describes the outcome of a single inbound connection.
type AccessStatus string

const (
	AccessAccepted AccessStatus = "accepted"
	AccessRejected AccessStatus = "rejected"
)

// AccessMessage is one line in the access log: who connected, to where,
// and what happened.
type AccessMessage struct {
	From   string
	To     string
	Status AccessStatus
	Reason error
}

func (m *AccessMessage) String() string {
	var b strings.Builder
	b.WriteString(m.From)
	b.WriteByte(' ')
	b.WriteString(string(m.Status))
	if m.To != "" {
		b.WriteByte(' ')
		b.WriteString(m.To)
	}
	if m.Reason != nil {
		b.WriteString(": ")
		b.WriteString(m.Reason.Error())
	}
	return b.String()
}

var mu sync.Mutex

func writeLine(level, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n", time.Now().Format(time.RFC3339), level, msg)
}

// Record writes one access-log line.
func Record(m *AccessMessage) {
	writeLine("access", m.String())
}

// Info, Warning, Error write a single free-form line at the named
// severity. Authentication failures are logged at Warning without ever
// including the credential itself — callers must not pass it in.
func Info(msg ...interface{})    { writeLine("info", fmt.Sprint(msg...)) }
func Warning(msg ...interface{}) { writeLine("warning", fmt.Sprint(msg...)) }
func Error(msg ...interface{})   { writeLine("error", fmt.Sprint(msg...)) }

// FromError renders an *errors.Error at the severity it carries.
func FromError(err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		switch e.Severity() {
		case errors.SeverityWarning:
			Warning(err.Error())
		case errors.SeverityError:
			Error(err.Error())
		default:
			Info(err.Error())
		}
		return
	}
	Info(err.Error())
}
