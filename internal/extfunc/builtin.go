package extfunc

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alnah/go-mdxsl/internal/dateutil"
	"github.com/alnah/go-mdxsl/internal/yamlutil"

	_ "modernc.org/sqlite"
)

// Built-in function names.
const (
	YAMLFunc = "yaml"
	SQLFunc  = "sql"
	DateFunc = "date"
)

// now is replaced in tests.
var now = time.Now

// Builtins returns a registry holding the built-in functions:
//
//	yaml  :file: path   decoded YAML data
//	sql   :db: path     one row element per result row
//	      :query: text
//	date  :format: fmt   current date, "YYYY-MM-DD" tokens or a preset
//
// Relative paths are resolved against BaseDir(ctx).
func Builtins() *Registry {
	r := NewRegistry()
	_ = r.Register(YAMLFunc, loadYAML)
	_ = r.Register(SQLFunc, querySQLite)
	_ = r.Register(DateFunc, currentDate)
	return r
}

func loadYAML(ctx context.Context, _ any, args map[string]string) (any, error) {
	path, err := requireArg(args, "file")
	if err != nil {
		return nil, err
	}
	return yamlutil.DecodeFile(resolvePath(ctx, path))
}

func currentDate(_ context.Context, _ any, args map[string]string) (any, error) {
	return dateutil.Format(now(), args["format"])
}

// querySQLite runs a read query. Each row becomes a row element whose
// children are named after the result columns, in column order.
func querySQLite(ctx context.Context, _ any, args map[string]string) (any, error) {
	dbPath, err := requireArg(args, "db")
	if err != nil {
		return nil, err
	}
	query, err := requireArg(args, "query")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", resolvePath(ctx, dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := []any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		fields := make([]any, len(cols))
		for i, col := range cols {
			fields[i] = Named{Name: col, Value: values[i]}
		}
		result = append(result, Named{Name: "row", Value: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func requireArg(args map[string]string, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return v, nil
}

func resolvePath(ctx context.Context, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(BaseDir(ctx), path)
}
