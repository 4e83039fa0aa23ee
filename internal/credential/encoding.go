package credential

import "strings"

// Markers substituted into stored hashes so they stay safe inside URL paths.
// Neither character belongs to the bcrypt alphabet (./A-Za-z0-9$), which makes
// DecodeHash(EncodeHash(h)) == h for every hash bcrypt can produce.
const (
	slashMarker       = "-"
	trailingDotMarker = "_"
)

// EncodeHash replaces every "/" and a trailing "." in a bcrypt hash.
func EncodeHash(hash string) string {
	encoded := strings.ReplaceAll(hash, "/", slashMarker)
	if strings.HasSuffix(encoded, ".") {
		encoded = strings.TrimSuffix(encoded, ".") + trailingDotMarker
	}
	return encoded
}

// DecodeHash is the exact inverse of EncodeHash.
func DecodeHash(encoded string) string {
	hash := strings.ReplaceAll(encoded, slashMarker, "/")
	if strings.HasSuffix(hash, trailingDotMarker) {
		hash = strings.TrimSuffix(hash, trailingDotMarker) + "."
	}
	return hash
}
