package cache

import (
	"crypto/md5"
	"encoding/hex"
)

// Cache key namespaces. Keys are "<namespace>:<hex digest>".
const (
	NamespaceText  = "text"
	NamespaceImage = "image"
)

// DeriveKey builds a deterministic cache key from raw content bytes. md5 is
// kept so keys stay compatible with entries written by earlier deployments
// against the same store; collision resistance is not load-bearing here, the
// key only identifies recomputable content.
func DeriveKey(namespace string, content []byte) string {
	sum := md5.Sum(content)
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// DeriveKeyString derives a key from text, encoded as UTF-8 bytes.
func DeriveKeyString(namespace string, content string) string {
	return DeriveKey(namespace, []byte(content))
}
