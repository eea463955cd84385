// Package config resolves the service's runtime environment from defaults,
// an optional YAML file and ENSEMBLE_-prefixed environment variables. The
// resulting Config is a snapshot: it is built once before startup and passed
// explicitly to every component that needs it.
package config
