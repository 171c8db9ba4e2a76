// Package canon produces canonical JSON and content-addressed hashes.
//
// Canonical serialization is the only serialization used for identity:
// program hashes, stable element identities, and golden frame traces all
// go through Marshal. Two structurally equal values always produce the
// same bytes:
//
//   - object keys sorted by UTF-16 code units (RFC 8785 order)
//   - strings NFC normalized, no HTML escaping
//   - floats in shortest round-trip form; NaN and infinities are
//     forbidden (they have no canonical JSON form and no business in a
//     compiled schedule)
//
// Hash computes SHA-256 with domain separation so values hashed for one
// purpose can never collide with values hashed for another.
package canon
