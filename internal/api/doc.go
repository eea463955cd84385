// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. Resources are generic route groups over a
// store.RecordStore; the Registry mounts them under /api next to the
// health and metrics endpoints.
package api
