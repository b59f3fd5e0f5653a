// Package dataset imports files into the embedded engine and exports tables out of it.
package dataset

import (
	"strings"
	"unicode/utf8"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
)

// Kind is the source kind of an import.
type Kind string

const (
	KindCSV      Kind = "csv"
	KindParquet  Kind = "parquet"
	KindJSON     Kind = "json"
	KindExcel    Kind = "excel"
	KindDatabase Kind = "database"
)

// ImportRequest is a validated import payload.
type ImportRequest struct {
	Kind    Kind          `mapstructure:"kind"`
	Path    string        `mapstructure:"path"`
	Options ImportOptions `mapstructure:"options"`

	// Excel sources.
	Sheet string `mapstructure:"sheet"`
	Range string `mapstructure:"range"`

	// Remote database sources.
	Driver string `mapstructure:"driver"`
	ConnID string `mapstructure:"connId"`
	SQL    string `mapstructure:"sql"`
}

// ImportOptions tunes file parsing.
type ImportOptions struct {
	// Header reports whether the first CSV line holds column names. Defaults to true.
	Header  *bool  `mapstructure:"header"`
	Delim   string `mapstructure:"delim"`
	Quote   string `mapstructure:"quote"`
	NullStr string `mapstructure:"nullstr"`
	// Replace drops an existing table of the same name first.
	Replace bool `mapstructure:"replace"`
}

// HasHeader returns the header flag with its default applied.
func (o ImportOptions) HasHeader() bool {
	return o.Header == nil || *o.Header
}

func (o ImportOptions) csvOnly() bool {
	return o.Header != nil || o.Delim != "" || o.Quote != "" || o.NullStr != ""
}

// ImportResult reports an imported table.
type ImportResult struct {
	Table    string          `json:"table"`
	RowCount int64           `json:"rowCount"`
	Schema   domain.TableDef `json:"schema"`
}

// ParseImport validates an untyped import payload.
func ParseImport(payload any) (*ImportRequest, error) {
	if payload == nil {
		return nil, apierr.NewValidation("", "import payload is required")
	}

	var req ImportRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &req,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, apierr.Wrap(apierr.Internal, err, "failed to build decoder")
	}
	if err := dec.Decode(payload); err != nil {
		return nil, apierr.NewValidation("", "invalid import payload: %v", err)
	}

	req.Kind = Kind(strings.ToLower(string(req.Kind)))
	switch req.Kind {
	case KindCSV, KindParquet, KindJSON:
		if strings.TrimSpace(req.Path) == "" {
			return nil, apierr.NewValidation("path", "is required for %s imports", req.Kind)
		}
	case KindExcel, KindDatabase:
	case "":
		return nil, apierr.NewValidation("kind", "is required (csv, parquet, json, excel or database)")
	default:
		return nil, apierr.NewValidation("kind", "unknown import kind %q", req.Kind)
	}

	if req.Kind != KindCSV && req.Options.csvOnly() {
		return nil, apierr.NewValidation("options", "header, delim, quote and nullstr only apply to csv imports")
	}
	if req.Options.Delim != "" && utf8.RuneCountInString(req.Options.Delim) != 1 {
		return nil, apierr.NewValidation("options.delim", "must be a single character")
	}
	if req.Options.Quote != "" && utf8.RuneCountInString(req.Options.Quote) != 1 {
		return nil, apierr.NewValidation("options.quote", "must be a single character")
	}

	return &req, nil
}

// DefaultTableName returns a fresh import_<uuid> name.
func DefaultTableName() string {
	return "import_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TargetTable validates an explicit target name or mints a default one.
func TargetTable(target string) (string, error) {
	if target == "" {
		return DefaultTableName(), nil
	}
	if !compiler.IsPlainIdentifier(target) {
		return "", apierr.NewValidation("table", "table name %q must be a plain identifier", target)
	}
	return target, nil
}
