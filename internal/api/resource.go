package api

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/ensemble-api/internal/api/envelope"
	"github.com/phrazzld/ensemble-api/internal/api/shared"
	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/pagination"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/phrazzld/ensemble-api/internal/store"
	"github.com/phrazzld/ensemble-api/internal/validation"
)

// List query defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultPage  = 1
	MaxPage      = math.MaxInt32
)

// listQuerySchema validates the query string of a list request.
var listQuerySchema = validation.Schema{Fields: []validation.Field{
	{Name: "aggregate", Type: validation.String},
	{Name: "limit", Type: validation.Number, Rules: []validation.Rule{
		validation.IntegerRule(), validation.MinRule(1), validation.MaxRule(MaxLimit),
	}},
	{Name: "page", Type: validation.Number, Rules: []validation.Rule{
		validation.IntegerRule(), validation.MinRule(1), validation.MaxRule(MaxPage),
	}},
}}

// RouteGroup is a set of routes mounted under one prefix of /api.
type RouteGroup interface {
	Pattern() string
	Routes() http.Handler
}

// Resource serves list/get/create/update/delete for one record type.
type Resource[T any] struct {
	name      string
	pattern   string
	store     store.RecordStore[T]
	schema    validation.Schema
	validator *validation.Validator
	protect   func(http.Handler) http.Handler
}

var _ RouteGroup = (*Resource[domain.Artist])(nil)

// NewResource creates a route group for a record type. protect guards the
// write routes; nil leaves them open.
func NewResource[T any](
	name, pattern string,
	st store.RecordStore[T],
	schema validation.Schema,
	v *validation.Validator,
	protect func(http.Handler) http.Handler,
) *Resource[T] {
	return &Resource[T]{
		name:      name,
		pattern:   pattern,
		store:     st,
		schema:    schema,
		validator: v,
		protect:   protect,
	}
}

// Pattern returns the mount prefix, e.g. "/artists".
func (res *Resource[T]) Pattern() string {
	return res.pattern
}

// Routes builds the resource's router.
func (res *Resource[T]) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", res.list)
	r.Get("/{id}", res.get)

	r.Group(func(r chi.Router) {
		if res.protect != nil {
			r.Use(res.protect)
		}
		r.Post("/", res.create)
		r.Put("/{id}", res.update)
		r.Delete("/{id}", res.delete)
	})

	return r
}

func (res *Resource[T]) list(w http.ResponseWriter, r *http.Request) {
	req, err := res.parseListQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := pagination.Paginate[T](r.Context(), res.store, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	_ = envelope.Send(w, r, result.Items, envelope.OK, result.Meta)
}

func (res *Resource[T]) parseListQuery(r *http.Request) (pagination.Request, error) {
	query := r.URL.Query()
	raw := make(map[string]any, 3)
	for _, key := range []string{"aggregate", "limit", "page"} {
		if query.Has(key) {
			raw[key] = query.Get(key)
		}
	}

	normalized, err := res.validator.Validate(raw, listQuerySchema, validation.Partial)
	if err != nil {
		return pagination.Request{}, err
	}

	req := pagination.Request{Limit: DefaultLimit, Page: DefaultPage}
	if v, ok := normalized["limit"].(int64); ok {
		req.Limit = int(v)
	}
	if v, ok := normalized["page"].(int64); ok {
		req.Page = int(v)
	}

	if aggregate, ok := normalized["aggregate"].(string); ok {
		filter, err := store.ParseFilter(aggregate)
		if err != nil {
			return pagination.Request{}, &validation.ValidationError{Details: []validation.Detail{{
				Field:   "aggregate",
				Rule:    "json",
				Message: "aggregate must be a JSON object",
			}}}
		}
		req.Filter = filter
	}

	return req, nil
}

func (res *Resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	record, err := res.store.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	_ = envelope.Send(w, r, record, envelope.OK, nil)
}

func (res *Resource[T]) create(w http.ResponseWriter, r *http.Request) {
	fields, ok := res.decode(w, r, validation.Full)
	if !ok {
		return
	}

	record, err := res.store.Create(r.Context(), fields)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("record created",
		slog.String("resource", res.name))
	_ = envelope.Send(w, r, record, envelope.Created, nil)
}

func (res *Resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fields, ok := res.decode(w, r, validation.Partial)
	if !ok {
		return
	}
	if len(fields) == 0 {
		respondError(w, r, &validation.ValidationError{Details: []validation.Detail{{
			Field:   "",
			Rule:    "required",
			Message: "at least one field is required",
		}}})
		return
	}

	record, err := res.store.Update(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, err)
		return
	}

	_ = envelope.Send(w, r, record, envelope.OK, nil)
}

func (res *Resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := res.store.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("record deleted",
		slog.String("resource", res.name),
		slog.String("id", id.String()))
	_ = envelope.Send(w, r, map[string]string{"id": id.String()}, envelope.OK, nil)
}

// decode reads and validates the request body. On failure the error response
// has already been sent.
func (res *Resource[T]) decode(w http.ResponseWriter, r *http.Request, mode validation.Mode) (map[string]any, bool) {
	payload, err := shared.DecodeJSON(w, r)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}

	fields, err := res.validator.Validate(payload, res.schema, mode)
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return fields, true
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", domain.ErrInvalidID, err)
	}
	return id, nil
}
