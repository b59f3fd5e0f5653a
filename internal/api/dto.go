package api

// RunQueryRequest is the body of run-query and start-query.
type RunQueryRequest struct {
	Spec    any `json:"spec"`
	Options any `json:"options,omitempty"`
}

// HandleRequest is the body of the operations that take a query or connection id.
type HandleRequest struct {
	ID string `json:"id"`
}

// ImportRequest is the body of import-dataset.
type ImportRequest struct {
	Dataset any    `json:"dataset"`
	Table   string `json:"table,omitempty"`
}

// ExportRequest is the body of export-dataset.
type ExportRequest struct {
	Table  string `json:"table"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// CreateConnectionRequest is the body of create-connection.
type CreateConnectionRequest struct {
	Config any `json:"config"`
}

// OKResponse acknowledges operations with no result.
type OKResponse struct {
	OK bool `json:"ok"`
}
