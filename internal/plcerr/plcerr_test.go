package plcerr

import (
	"errors"
	"testing"

	"github.com/carun/eipsession/internal/cip"
	"github.com/stretchr/testify/require"
)

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := WrapConnectionError("failed to open PLC socket", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "failed to open PLC socket")
	require.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestResponseErrorCarriesStatus(t *testing.T) {
	status := cip.StatusFromCode(0x05)
	err := NewResponseErrorWithStatus("get attribute failed", status)

	require.NotNil(t, err.Status)
	require.Contains(t, err.Error(), status.String())
}

func TestRuntimeNotRegisteredErrorCarriesAlias(t *testing.T) {
	err := NewRuntimeNotRegisteredError("output1")
	require.Equal(t, "output1", err.Alias)
	require.Contains(t, err.Error(), "output1")
	require.NotNil(t, err.RuntimeError)
}

func TestRuntimeDirectionErrorIsRuntimeError(t *testing.T) {
	err := NewRuntimeDirectionError("cannot queue output on an input assembly")
	require.Contains(t, err.Error(), "cannot queue output")
}

func TestManagerErrorWrapsPoolExhaustion(t *testing.T) {
	err := NewManagerError("PLC connection pool exhausted")
	require.Equal(t, "plc manager: PLC connection pool exhausted", err.Error())
}
