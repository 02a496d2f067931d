package envutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvDefault(t *testing.T) {
	const name = "SPEECHLM_ENVUTIL_TEST"
	os.Unsetenv(name)
	assert.Equal(t, "fallback", GetenvDefault(name, "fallback"))

	require.NoError(t, os.Setenv(name, "value"))
	defer os.Unsetenv(name)
	assert.Equal(t, "value", GetenvDefault(name, "fallback"))
}

func TestGetenvDefaultInt(t *testing.T) {
	const name = "SPEECHLM_ENVUTIL_INT_TEST"
	os.Unsetenv(name)
	defer os.Unsetenv(name)

	v, err := GetenvDefaultInt(name, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	require.NoError(t, os.Setenv(name, "12"))
	v, err = GetenvDefaultInt(name, 4)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	require.NoError(t, os.Setenv(name, "twelve"))
	v, err = GetenvDefaultInt(name, 4)
	assert.Error(t, err)
	assert.Equal(t, 4, v)
}
