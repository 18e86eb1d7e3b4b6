package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	a := ObjectOf(O("count", Int(1)), O("items", NewList(String("x"))))
	b := ObjectOf(O("items", NewList(String("x"))), O("count", Int(1)))

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb, "key order must not matter")
	assert.Len(t, fa, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := MustFingerprint(ObjectOf(O("count", Int(1))))
	b := MustFingerprint(ObjectOf(O("count", Int(2))))
	c := MustFingerprint(NewSet(Int(1), Int(2)))
	d := MustFingerprint(NewSet(Int(2), Int(1)))

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, c, d, "set insertion order is observable")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t,
		HashWithDomain(DomainSnapshot, data),
		HashWithDomain(DomainDefinition, data))
}
