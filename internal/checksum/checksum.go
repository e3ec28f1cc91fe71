// Package checksum computes the SHA-1 fingerprints the session
// manager attaches to uploaded configs and exposes in info replies.
//
// Grounded on original_source/src/checksum.rs and src/clients.rs's
// config-upload handling; the original used a Blake3 Merkle tree over
// the assets directory, but spec.md §6 specifies a SHA-1 digest of
// the upload payload itself (first 8 hex nybbles), so crypto/sha1 is
// the correct primitive here — no third-party hash library in the
// pack covers SHA-1 over an arbitrary byte payload more directly than
// the standard library already does.
package checksum

import (
	"crypto/sha1"
	"encoding/hex"
)

// Short returns the first 8 hex digits of SHA-1(payload), the
// filename stem spec.md §4.5/§6 assigns to an uploaded config.
func Short(payload []byte) string {
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])[:8]
}

// Full returns the full 40-hex-digit SHA-1 digest of payload.
func Full(payload []byte) string {
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}
