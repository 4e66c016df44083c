// Package token implements walrus's opaque bearer credentials.
//
// A session credential is a pair (session id, 32 random bytes). On the wire
// the pair travels packed: the raw 16 bytes of the session UUID concatenated
// with the token bytes, base64-encoded with the standard padded alphabet.
// Both halves must match server state for the credential to authenticate.
package token
