// Package hash computes content hashes of method bodies. Hashes depend on
// the shape of a body, not on the identity of its instruction records, so a
// body rebuilt from scratch hashes the same as the original.
package hash

import (
	"crypto/sha256"

	"github.com/chazu/weaver/il"
)

// Body computes the SHA-256 content hash of a method body.
func Body(body *il.MethodBody) [32]byte {
	return sha256.Sum256(Serialize(body))
}

// Method computes the SHA-256 content hash of a method's signature and body.
func Method(m *il.Method) [32]byte {
	return sha256.Sum256(SerializeMethod(m))
}
