package errors_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cty123/trojan-relay/common/errors"
)

func TestKindWalksChain(t *testing.T) {
	base := errors.New("dial failed").Base(io.ErrClosedPipe).WithKind(errors.KindConnectionRefused)
	wrapped := errors.New("dispatch failed").Base(base)

	assert.Equal(t, errors.KindConnectionRefused, wrapped.Kind())
}

func TestSeverityDefaultsToInfo(t *testing.T) {
	err := errors.New("something happened")
	assert.Equal(t, errors.SeverityInfo, err.Severity())
}

func TestSeverityOverrides(t *testing.T) {
	err := errors.New("auth failed").AtWarning()
	assert.Equal(t, errors.SeverityWarning, err.Severity())
}

func TestErrorMessageIncludesInner(t *testing.T) {
	err := errors.New("outer").Base(errors.New("inner"))
	assert.Contains(t, err.Error(), "outer")
	assert.Contains(t, err.Error(), "inner")
}

func TestAsFindsWrappedError(t *testing.T) {
	target := errors.New("leaf").WithKind(errors.KindUnsupported)
	var err error = target
	var found *errors.Error
	assert.True(t, errors.As(err, &found))
	assert.Equal(t, errors.KindUnsupported, found.Kind())
}
