package db

import (
	"context"
	"fmt"
	"strings"
)

// Rows is the result of an ad-hoc statement.
type Rows struct {
	Columns []string
	Values  [][]any
	// Affected is set for statements that return no rows.
	Affected int64
}

// LooksLikeQuery reports whether sql returns rows.
func LooksLikeQuery(sql string) bool {
	s := strings.ToLower(strings.TrimSpace(sql))
	for _, p := range []string{"select", "with ", "from ", "describe", "show", "pragma", "summarize"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Exec runs an ad-hoc statement for the operator shell.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) (Rows, error) {
	if !LooksLikeQuery(sql) {
		res, err := s.DB.ExecContext(ctx, sql, args...)
		if err != nil {
			return Rows{}, fmt.Errorf("exec failed: %w", err)
		}
		n, _ := res.RowsAffected()
		return Rows{Affected: n}, nil
	}

	rows, err := s.DB.QueryContext(ctx, sql, args...)
	if err != nil {
		return Rows{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return Rows{}, err
	}
	out := Rows{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Rows{}, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Values = append(out.Values, vals)
	}
	return out, rows.Err()
}
