package service

import (
	"context"
	"log/slog"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
	"github.com/andrew2loo/RethinkBI/internal/core/query/encoder"
	"github.com/andrew2loo/RethinkBI/internal/core/query/validator"
	"github.com/andrew2loo/RethinkBI/internal/debug"
)

// asyncCapability names the start/poll/cancel query flow.
const asyncCapability = "async-query"

// QueryResult holds exactly one of the two result representations.
type QueryResult struct {
	Columnar *encoder.ColumnarBuffer
	Paged    *encoder.PagedRows
}

// QueryService validates, compiles, runs and encodes queries.
type QueryService struct {
	engine   Engine
	schema   SchemaReader
	pageSize int
	log      *slog.Logger
}

// NewQueryService creates a query service. pageSize is applied to row-mode requests that do
// not set one; 0 returns every row.
func NewQueryService(engine Engine, schema SchemaReader, pageSize int) *QueryService {
	return &QueryService{
		engine:   engine,
		schema:   schema,
		pageSize: pageSize,
		log:      debug.With("component", "query"),
	}
}

// RunQuery validates the untyped spec and options and runs the query. Validation failures
// never reach the engine.
func (s *QueryService) RunQuery(ctx context.Context, spec, options any) (*QueryResult, error) {
	q, err := validator.ParseQuerySpec(spec)
	if err != nil {
		return nil, normalize(err)
	}
	opts, err := validator.ParseQueryOptions(options)
	if err != nil {
		return nil, normalize(err)
	}
	return s.Run(ctx, q, opts)
}

// Run executes an already validated query.
func (s *QueryService) Run(ctx context.Context, q domain.QuerySpec, opts domain.QueryOptions) (*QueryResult, error) {
	compiled, err := s.Compile(ctx, q)
	if err != nil {
		return nil, normalize(err)
	}

	res, err := s.engine.Run(ctx, compiled)
	if err != nil {
		return nil, normalize(err)
	}
	s.log.Debug("query executed", "kind", q.Kind(), "rows", res.Len())

	if opts.Columnar {
		buf, err := encoder.Columnar(res)
		if err != nil {
			return nil, normalize(err)
		}
		return &QueryResult{Columnar: buf}, nil
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = s.pageSize
	}
	page, err := encoder.Paged(res, pageSize, opts.Cursor)
	if err != nil {
		return nil, normalize(err)
	}
	return &QueryResult{Paged: page}, nil
}

// Compile turns q into engine text. Visual queries are checked against a fresh catalog.
func (s *QueryService) Compile(ctx context.Context, q domain.QuerySpec) (domain.SQL, error) {
	switch q := q.(type) {
	case *domain.SQLQuery:
		return compiler.PassThrough(q), nil
	case *domain.VisualQuery:
		catalog, err := s.schema.Catalog(ctx)
		if err != nil {
			return domain.SQL{}, normalize(err)
		}
		out, err := compiler.Compile(q, catalog)
		return out, normalize(err)
	default:
		return domain.SQL{}, apierr.New(apierr.Internal, "unknown query kind %T", q)
	}
}

// StartQuery is not available: queries only run synchronously.
func (s *QueryService) StartQuery(_ context.Context, _, _ any) (*domain.QueryHandle, error) {
	return nil, apierr.NewUnsupported(asyncCapability, "asynchronous queries are not supported; use run-query")
}

// GetQueryResult is not available: queries only run synchronously.
func (s *QueryService) GetQueryResult(_ context.Context, _ string) (*QueryResult, error) {
	return nil, apierr.NewUnsupported(asyncCapability, "asynchronous queries are not supported; use run-query")
}

// CancelQuery is not available: queries only run synchronously.
func (s *QueryService) CancelQuery(_ context.Context, _ string) error {
	return apierr.NewUnsupported(asyncCapability, "asynchronous queries are not supported; use run-query")
}
