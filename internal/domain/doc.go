// Package domain defines the resources served by the API and the errors
// shared across layers.
package domain
