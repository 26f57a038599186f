package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainComparator(t *testing.T) {
	cmp := PlainComparator{}

	encoded, err := cmp.Encode("secret")
	require.NoError(t, err)
	require.Equal(t, "secret", encoded)

	require.True(t, cmp.Compare("secret", "secret"))
	require.False(t, cmp.Compare("secret", "Secret"))
	require.False(t, cmp.Compare("secret", ""))
}

func TestBcryptComparator(t *testing.T) {
	cmp := BcryptComparator{Cost: 4}

	encoded, err := cmp.Encode("secret")
	require.NoError(t, err)
	require.NotEqual(t, "secret", encoded)

	require.True(t, cmp.Compare(encoded, "secret"))
	require.False(t, cmp.Compare(encoded, "other"))
}
