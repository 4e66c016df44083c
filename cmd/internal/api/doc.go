// Package api is the HTTP adapter: it parses bearer credentials, resolves
// them into a user id, dispatches into the auth and chat services and maps
// error kinds onto status codes.
package api
