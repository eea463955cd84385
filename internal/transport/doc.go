// Package transport chooses and binds the listener the HTTP server accepts
// connections on: plain TCP, or TLS with certificate material from files or
// from an ACME provider through autocert.
package transport
