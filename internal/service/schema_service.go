package service

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// SchemaService describes the tables held by the engine.
type SchemaService struct {
	schema SchemaReader
}

// NewSchemaService creates a new schema service.
func NewSchemaService(schema SchemaReader) *SchemaService {
	return &SchemaService{schema: schema}
}

// GetSchema returns every table, freshly read. An empty engine yields an empty slice.
func (s *SchemaService) GetSchema(ctx context.Context) ([]domain.TableDef, error) {
	tables, err := s.schema.Tables(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	if tables == nil {
		tables = []domain.TableDef{}
	}
	return tables, nil
}
