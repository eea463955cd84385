package pagination

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/phrazzld/ensemble-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Source is the datastore primitive the engine reads from.
type Source[T any] interface {
	CountMatching(ctx context.Context, filter store.Filter) (int64, error)
	Fetch(ctx context.Context, filter store.Filter, skip, limit int) ([]T, error)
}

// Request describes one page to read. Limit and Page are expected to be at
// least 1; the engine does not validate them, that is the caller's job.
type Request struct {
	Filter store.Filter
	Limit  int
	Page   int
}

// Meta describes the page that was read.
type Meta struct {
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	PageCount  int64 `json:"pageCount"`
}

// Result is one page of items plus its metadata.
type Result[T any] struct {
	Items []T
	Meta  Meta
}

// QueryError reports a failed datastore read.
type QueryError struct {
	Op  string // "count" or "fetch"
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("pagination %s failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err is or wraps a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// Skip returns the number of records preceding the requested page. ok is
// false when that number does not fit in an int; no datastore holds that
// many records, so the page is necessarily past the end.
func (r Request) Skip() (skip int, ok bool) {
	if r.Page > 1 && r.Limit > 0 && r.Page-1 > math.MaxInt/r.Limit {
		return 0, false
	}
	return (r.Page - 1) * r.Limit, true
}

// PageCount returns ceil(total/limit). It is 0 when total is 0, and also when
// limit is below 1, since no page size can be derived from such a limit.
func PageCount(total int64, limit int) int64 {
	if total <= 0 || limit < 1 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// Paginate reads the requested page from src. The count and the fetch run
// concurrently under ctx; if either fails the other is cancelled and the
// failure is returned as a *QueryError. A page past the end is not an error:
// it yields an empty, non-nil Items slice. Fetch is not called when the
// offset overflows.
func Paginate[T any](ctx context.Context, src Source[T], req Request) (*Result[T], error) {
	var (
		total int64
		items []T
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := src.CountMatching(gctx, req.Filter)
		if err != nil {
			return &QueryError{Op: "count", Err: err}
		}
		total = n
		return nil
	})
	if skip, ok := req.Skip(); ok {
		g.Go(func() error {
			rows, err := src.Fetch(gctx, req.Filter, skip, req.Limit)
			if err != nil {
				return &QueryError{Op: "fetch", Err: err}
			}
			items = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []T{}
	}

	return &Result[T]{
		Items: items,
		Meta: Meta{
			TotalCount: total,
			Page:       req.Page,
			Limit:      req.Limit,
			PageCount:  PageCount(total, req.Limit),
		},
	}, nil
}
