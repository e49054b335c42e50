package cosem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthentication(t *testing.T) {
	a, err := ParseAuthentication("low")
	require.NoError(t, err)
	assert.Equal(t, AuthenticationLow, a)

	a, err = ParseAuthentication("HighGMAC")
	require.NoError(t, err)
	assert.Equal(t, AuthenticationHighGMAC, a)

	_, err = ParseAuthentication("medium")
	assert.Error(t, err)
}

func TestMechanismID(t *testing.T) {
	for _, a := range []Authentication{AuthenticationNone, AuthenticationLow, AuthenticationHighSHA256} {
		got, err := MechanismID(NewOctetString(a.MechanismName()))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	structured := NewStructure(
		NewUint(TagUInt8, 2), NewUint(TagUInt8, 16), NewUint(TagUInt16, 756),
		NewUint(TagUInt8, 5), NewUint(TagUInt8, 8), NewUint(TagUInt8, 2), NewUint(TagUInt8, 5),
	)
	got, err := MechanismID(structured)
	require.NoError(t, err)
	assert.Equal(t, AuthenticationHighGMAC, got)

	_, err = MechanismID(NewOctetString(nil))
	assert.Error(t, err)
	_, err = MechanismID(NewUint(TagUInt8, 1))
	assert.Error(t, err)
}

func TestContextDLMSVersion(t *testing.T) {
	info := NewStructure(
		Value{Tag: TagBitString, Data: "000000000001111000011101"},
		NewUint(TagUInt16, 1024),
		NewUint(TagUInt16, 1024),
		NewUint(TagUInt8, 6),
		NewInt(TagInt8, 0),
		NewOctetString(nil),
	)
	v, err := ContextDLMSVersion(info)
	require.NoError(t, err)
	assert.Equal(t, DLMSVersion, v)

	_, err = ContextDLMSVersion(NewStructure(NewUint(TagUInt8, 6)))
	assert.Error(t, err)
}

func TestConformance(t *testing.T) {
	c := ConformanceGet | ConformanceSet | ConformanceAction
	assert.Equal(t, []string{"Get", "Set", "Action"}, c.Names())
	assert.Equal(t, "Get, Set, Action", c.String())
	assert.Equal(t, Conformance(1), ConformanceBit(23))
	assert.True(t, c.Has(ConformanceGet|ConformanceAction))
	assert.False(t, c.Has(ConformanceSelectiveAccess))

	parsed, unknown := ParseConformance([]string{"get", "Set", "Teleport"})
	assert.Equal(t, ConformanceGet|ConformanceSet, parsed)
	assert.Equal(t, []string{"Teleport"}, unknown)
}
