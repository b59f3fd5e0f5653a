package service

import (
	"context"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/dataset"
)

// DatasetService imports and exports datasets.
type DatasetService struct {
	datasets Datasets
}

// NewDatasetService creates a new dataset service.
func NewDatasetService(datasets Datasets) *DatasetService {
	return &DatasetService{datasets: datasets}
}

// ImportDataset loads payload into target, or a generated import_<uuid> table.
func (s *DatasetService) ImportDataset(ctx context.Context, payload any, target string) (*dataset.ImportResult, error) {
	res, err := s.datasets.Import(ctx, payload, target)
	if err != nil {
		return nil, normalize(err)
	}
	return res, nil
}

// ExportDataset writes table to path.
func (s *DatasetService) ExportDataset(ctx context.Context, table, format, path string) (*dataset.ExportResult, error) {
	if table == "" {
		return nil, apierr.NewValidation("table", "is required")
	}
	res, err := s.datasets.Export(ctx, table, dataset.ExportFormat(format), path)
	if err != nil {
		return nil, normalize(err)
	}
	return res, nil
}
