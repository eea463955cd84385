package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/phrazzld/ensemble-api/internal/store"
)

// TableSpec describes a resource table.
type TableSpec struct {
	Database string   // name of the configured database holding the table
	Name     string   // table name
	Entity   string   // entity name used in errors, e.g. "artist"
	Columns  []string // writable columns; id and timestamps are implicit
}

// Table serves one resource table of type T, whose db tags must match the
// columns. It resolves its pool on every call, so it can be built before
// the Datastore connects; calls made earlier fail with store.ErrNotConnected.
type Table[T any] struct {
	ds       *Datastore
	spec     TableSpec
	writable map[string]bool
	filters  []string
	selects  string
	log      *slog.Logger
	tx       store.DBTX
}

var _ store.RecordStore[struct{}] = (*Table[struct{}])(nil)

// NewTable creates a Table over ds.
func NewTable[T any](ds *Datastore, spec TableSpec) *Table[T] {
	writable := make(map[string]bool, len(spec.Columns))
	for _, c := range spec.Columns {
		writable[c] = true
	}

	all := append([]string{"id"}, spec.Columns...)
	all = append(all, "created_at", "updated_at")

	return &Table[T]{
		ds:       ds,
		spec:     spec,
		writable: writable,
		filters:  all,
		selects:  strings.Join(all, ", "),
		log:      ds.log.With(slog.String("table", spec.Name)),
	}
}

// InTx returns a copy of the table that runs every statement on tx instead
// of the datastore pool.
func (t *Table[T]) InTx(tx store.DBTX) *Table[T] {
	c := *t
	c.tx = tx
	return &c
}

func (t *Table[T]) db(ctx context.Context, op, query string) (store.DBTX, error) {
	var db store.DBTX = t.tx
	if db == nil {
		pool, err := t.ds.DB(t.spec.Database)
		if err != nil {
			return nil, store.NewStoreError(t.spec.Entity, op, "no connection", err)
		}
		db = pool
	}
	if t.ds.Verbose() {
		logger.FromContextOrDefault(ctx, t.log).Info("sql",
			slog.String("table", t.spec.Name),
			slog.String("op", op),
			slog.String("query", query))
	}
	return db, nil
}

func (t *Table[T]) fail(op string, err error) error {
	return store.NewStoreError(t.spec.Entity, op, "query failed", MapError(err))
}

func (t *Table[T]) where(filter store.Filter) (string, []any, error) {
	clause, args, err := newWhereBuilder(t.filters).where(filter)
	if err != nil {
		return "", nil, err
	}
	if clause != "" {
		clause = " WHERE " + clause
	}
	return clause, args, nil
}

// CountMatching counts the records matching filter.
func (t *Table[T]) CountMatching(ctx context.Context, filter store.Filter) (int64, error) {
	clause, args, err := t.where(filter)
	if err != nil {
		return 0, store.NewStoreError(t.spec.Entity, "count", "invalid filter", err)
	}

	query := "SELECT COUNT(*) FROM " + t.spec.Name + clause
	db, err := t.db(ctx, "count", query)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, t.fail("count", err)
	}
	return n, nil
}

// Fetch returns up to limit records matching filter after skipping skip,
// ordered by creation time. Limit and skip are passed to PostgreSQL as
// given; negative values are rejected by the server.
func (t *Table[T]) Fetch(ctx context.Context, filter store.Filter, skip, limit int) ([]T, error) {
	clause, args, err := t.where(filter)
	if err != nil {
		return nil, store.NewStoreError(t.spec.Entity, "fetch", "invalid filter", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		t.selects, t.spec.Name, clause, n+1, n+2)
	args = append(args, limit, skip)

	db, err := t.db(ctx, "fetch", query)
	if err != nil {
		return nil, err
	}

	items := []T{}
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, t.fail("fetch", err)
	}
	return items, nil
}

// GetByID returns one record.
func (t *Table[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", t.selects, t.spec.Name)
	db, err := t.db(ctx, "get", query)
	if err != nil {
		return nil, err
	}

	var out T
	if err := db.GetContext(ctx, &out, query, id); err != nil {
		return nil, t.fail("get", err)
	}
	return &out, nil
}

// columnsOf checks that every field is writable and returns the columns in
// sorted order with their values.
func (t *Table[T]) columnsOf(op string, fields map[string]any) ([]string, []any, error) {
	cols := make([]string, 0, len(fields))
	for c := range fields {
		if !t.writable[c] {
			return nil, nil, store.NewStoreError(t.spec.Entity, op, "unknown column "+strconv.Quote(c), store.ErrInvalidEntity)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = fields[c]
	}
	return cols, vals, nil
}

// Create inserts a record from validated fields and returns it as stored.
func (t *Table[T]) Create(ctx context.Context, fields map[string]any) (*T, error) {
	cols, vals, err := t.columnsOf("create", fields)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, store.NewStoreError(t.spec.Entity, "create", "no fields", store.ErrInvalidEntity)
	}

	holders := make([]string, len(cols))
	for i := range cols {
		holders[i] = "$" + strconv.Itoa(i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.spec.Name, strings.Join(cols, ", "), strings.Join(holders, ", "), t.selects)

	db, err := t.db(ctx, "create", query)
	if err != nil {
		return nil, err
	}

	var out T
	if err := db.QueryRowxContext(ctx, query, vals...).StructScan(&out); err != nil {
		return nil, t.fail("create", err)
	}
	return &out, nil
}

// Update changes the given fields of a record and returns it as stored.
// With no fields it returns the record unchanged.
func (t *Table[T]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error) {
	cols, vals, err := t.columnsOf("update", fields)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return t.GetByID(ctx, id)
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	query := fmt.Sprintf("UPDATE %s SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		t.spec.Name, strings.Join(sets, ", "), len(cols)+1, t.selects)

	db, err := t.db(ctx, "update", query)
	if err != nil {
		return nil, err
	}

	var out T
	if err := db.QueryRowxContext(ctx, query, append(vals, id)...).StructScan(&out); err != nil {
		return nil, t.fail("update", err)
	}
	return &out, nil
}

// Delete removes a record.
func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.spec.Name)
	db, err := t.db(ctx, "delete", query)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return t.fail("delete", err)
	}
	if err := CheckRowsAffected(result, t.spec.Entity); err != nil {
		return store.NewStoreError(t.spec.Entity, "delete", "no rows", err)
	}
	return nil
}
