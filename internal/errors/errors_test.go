package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryNewUsesCatalogMessage(t *testing.T) {
	err := New().New(ErrInvalidInterval)

	assert.Equal(t, ErrInvalidInterval, err.Code())
	assert.Equal(t, GetErrorMessage(ErrInvalidInterval), err.Error())
}

func TestFactoryWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New().Wrap(ErrExportReport, cause)

	assert.Equal(t, ErrExportReport, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFactoryWithData(t *testing.T) {
	err := New().WithData(ErrInvalidStrategy, "reckless")

	assert.Equal(t, ErrInvalidStrategy, err.Code())
	assert.Contains(t, err.Error(), "reckless")
}

func TestWithDataChainsOntoMessage(t *testing.T) {
	err := New().WithMessage(ErrReadConfig, "Failed to read config file").WithData("no such file")

	require.Equal(t, ErrReadConfig, err.Code())
	assert.Equal(t, "Failed to read config file: no such file", err.Error())
}
