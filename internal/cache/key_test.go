package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	first := DeriveKeyString(NamespaceText, "hello")
	second := DeriveKeyString(NamespaceText, "hello")
	require.Equal(t, first, second)
	// md5("hello")
	require.Equal(t, "text:5d41402abc4b2a76b9719d911017c592", first)
}

func TestDeriveKeyNamespaceSeparation(t *testing.T) {
	content := []byte("same content")
	require.NotEqual(t, DeriveKey(NamespaceText, content), DeriveKey(NamespaceImage, content))
}

func TestDeriveKeyStringMatchesBytes(t *testing.T) {
	require.Equal(t, DeriveKey(NamespaceText, []byte("héllo")), DeriveKeyString(NamespaceText, "héllo"))
}
