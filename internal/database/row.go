package database

import "github.com/koustreak/calcat/internal/errs"

// ScanRows reads all rows from the result set and returns them as a slice
// of maps keyed by column name.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows.
func ScanRows(rows Rows) ([]map[string]any, error) {
	result := make([]map[string]any, 0)
	err := EachRow(rows, func(row map[string]any) error {
		result = append(result, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EachRow calls fn with every row of the result set, keyed by column name,
// without holding more than one row in memory. An error from fn stops the
// iteration and is returned as is. EachRow always closes the Rows.
func EachRow(rows Rows, fn func(row map[string]any) error) error {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	// *any targets let the driver write any type.
	dest := make([]any, len(columns))
	destPtrs := make([]any, len(columns))
	for i := range dest {
		destPtrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(destPtrs...); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalize(dest[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return nil
}

// normalize turns driver byte slices into strings. database/sql drivers
// return VARCHAR values as []byte when scanned into *any.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
