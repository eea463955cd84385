// Package pagination implements the paginated-query engine shared by every
// collection read. It turns a filter, a page size and a page number into a
// bounded read against a Source and shapes the result with page metadata.
//
// The count and the fetch are separate reads and are not transactionally
// linked. A concurrent write between them can make Meta.TotalCount disagree
// with Items by a small margin; callers accept approximate pagination.
package pagination
