package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIPLiteral(t *testing.T) {
	ip, err := Lookup("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	ip, err = Lookup("::1")
	require.NoError(t, err)
	assert.Equal(t, "::1", ip)
}

func TestPreferIPv4(t *testing.T) {
	ip, err := preferIPv4([]string{"2001:db8::1", "192.0.2.7"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.7", ip)

	ip, err = preferIPv4([]string{"2001:db8::1"})
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", ip)

	_, err = preferIPv4(nil)
	assert.ErrorIs(t, err, errNoAddress)
}

func TestTrimBrackets(t *testing.T) {
	assert.Equal(t, "2620:fe::fe", trimBrackets("[2620:fe::fe]"))
	assert.Equal(t, "9.9.9.9", trimBrackets("9.9.9.9"))
}
