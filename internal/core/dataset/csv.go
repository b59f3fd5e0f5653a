package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/compiler"
)

// csvTable is a parsed CSV file with inferred column types.
type csvTable struct {
	columns []string
	types   []string
	records [][]any
}

// importSQLite loads a CSV file with bound inserts in one transaction. SQLite has no
// file-reading table functions, so parquet and json are unsupported there.
func (i *Importer) importSQLite(ctx context.Context, req *ImportRequest, table string) (int64, error) {
	if req.Kind != KindCSV {
		return 0, apierr.NewUnsupported("import."+string(req.Kind), "%s imports require the duckdb engine", req.Kind)
	}
	if req.Options.Quote != "" && req.Options.Quote != `"` {
		return 0, apierr.NewUnsupported("import.csv.quote", "custom quote characters require the duckdb engine")
	}

	r, err := i.storage.ReadStream(ctx, req.Path)
	if err != nil {
		return 0, apierr.Wrap(apierr.IOError, err, "cannot read %s", req.Path).WithDetail("path", req.Path)
	}
	defer r.Close()

	parsed, err := parseCSV(r, req.Options)
	if err != nil {
		return 0, err
	}

	var count int64
	err = i.engine.Do(ctx, func(ctx context.Context, a database.Adapter) error {
		tx, err := a.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		name := compiler.QuoteIdent(table)
		if req.Options.Replace {
			if _, err := tx.Execute(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
				return fmt.Errorf("failed to drop %s: %w", table, err)
			}
		}

		defs := make([]string, len(parsed.columns))
		for c, col := range parsed.columns {
			defs[c] = compiler.QuoteIdent(col) + " " + parsed.types[c]
		}
		if _, err := tx.Execute(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))); err != nil {
			return fmt.Errorf("failed to create %s: %w", table, err)
		}

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(parsed.columns)), ", ")
		insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, placeholders)
		for n, record := range parsed.records {
			if _, err := tx.Execute(ctx, insert, record...); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", n+1, err)
			}
		}

		rows, err := tx.Query(ctx, "SELECT COUNT(*) FROM "+name)
		if err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
		if rows.Next() {
			if err := rows.Scan(&count); err != nil {
				rows.Close()
				return fmt.Errorf("failed to count rows: %w", err)
			}
		}
		rows.Close()

		return tx.Commit()
	})
	return count, err
}

// parseCSV reads the whole file and infers INTEGER, REAL or TEXT per column.
func parseCSV(r io.Reader, opts ImportOptions) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	if opts.Delim != "" {
		reader.Comma, _ = utf8.DecodeRuneInString(opts.Delim)
	}

	var raw [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apierr.Wrap(apierr.Validation, err, "malformed csv")
		}
		raw = append(raw, record)
	}

	width := 0
	for _, record := range raw {
		if len(record) > width {
			width = len(record)
		}
	}
	if width == 0 {
		return nil, apierr.New(apierr.Validation, "csv file has no columns")
	}

	var header []string
	if opts.HasHeader() && len(raw) > 0 {
		header, raw = raw[0], raw[1:]
	}

	t := &csvTable{columns: columnNames(header, width), types: make([]string, width)}
	for c := 0; c < width; c++ {
		t.types[c] = inferType(raw, c, opts.NullStr)
	}

	t.records = make([][]any, len(raw))
	for n, record := range raw {
		values := make([]any, width)
		for c := 0; c < width; c++ {
			values[c] = convertCell(record, c, t.types[c], opts.NullStr)
		}
		t.records[n] = values
	}
	return t, nil
}

// columnNames fills blank names with columnN and de-duplicates the rest.
func columnNames(header []string, width int) []string {
	names := make([]string, width)
	seen := map[string]int{}
	for c := 0; c < width; c++ {
		name := ""
		if c < len(header) {
			name = strings.TrimSpace(header[c])
		}
		if name == "" {
			name = "column" + strconv.Itoa(c)
		}
		base, key := name, strings.ToLower(name)
		for n := seen[key]; n > 0; n++ {
			candidate := fmt.Sprintf("%s_%d", base, n)
			if _, taken := seen[strings.ToLower(candidate)]; !taken {
				seen[key] = n + 1
				name, key = candidate, strings.ToLower(candidate)
				break
			}
		}
		seen[key] = 1
		names[c] = name
	}
	return names
}

func cell(record []string, c int, nullStr string) (string, bool) {
	if c >= len(record) {
		return "", false
	}
	v := record[c]
	if v == "" || (nullStr != "" && v == nullStr) {
		return "", false
	}
	return v, true
}

func inferType(records [][]string, c int, nullStr string) string {
	typ := "INTEGER"
	empty := true
	for _, record := range records {
		v, ok := cell(record, c, nullStr)
		if !ok {
			continue
		}
		empty = false
		v = strings.TrimSpace(v)
		if typ == "INTEGER" {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			typ = "REAL"
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "TEXT"
		}
	}
	if empty {
		return "TEXT"
	}
	return typ
}

func convertCell(record []string, c int, typ, nullStr string) any {
	v, ok := cell(record, c, nullStr)
	if !ok {
		return nil
	}
	switch typ {
	case "INTEGER":
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	case "REAL":
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	}
	return v
}
