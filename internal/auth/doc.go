// Package auth issues and validates the HMAC-signed JWT bearer tokens that
// guard the write routes.
package auth
