// Package password implements walrus's credential hashing.
//
// The stored form is SHA-256(password_bytes ‖ salt_bytes) with a per-user
// 16-byte random salt. The concatenation order is part of the on-disk
// contract and must not change.
package password
