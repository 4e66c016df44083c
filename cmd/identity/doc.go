// Package identity is walrus's credential store.
//
// Users carry a unique case-sensitive alias, a display name, a role and a
// salted password hash. Users are created exclusively through the invite
// flow (plus one "origin" admin seeded at schema initialization) and are
// never deleted by the core.
package identity
