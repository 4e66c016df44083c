// Package auth implements walrus's authentication and session lifecycle:
// invite-only user creation, password login, access-token resolution,
// counter-serialized refresh and logout.
package auth
