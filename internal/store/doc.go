// Package store defines the datastore contracts used by the API: the opaque
// aggregate Filter, the record-store interfaces resources are served from,
// and the errors every implementation reports.
package store
