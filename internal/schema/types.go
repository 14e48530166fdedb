package schema

// ColumnInfo describes a single live column.
type ColumnInfo struct {
	Name         string
	DataType     string // as reported by the backend: integer, character varying, VARCHAR(40), ...
	IsNullable   bool
	IsPrimaryKey bool
	IsUnique     bool
	DefaultValue *string // nil if no default
	MaxLength    *int    // nil for non-char types
}

// TableInfo describes a live table and its columns.
type TableInfo struct {
	Schema  string
	Name    string
	Columns []ColumnInfo
}

// Column finds a column by name, ignoring case: Postgres folds unquoted
// identifiers to lower case, CAL-ACCESS declares them upper case.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if equalIdent(c.Name, name) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}
