package artifact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reoring/wqschema/codec"
	"github.com/reoring/wqschema/fields"
)

// ColumnDef describes one generated column.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, NUMERIC, VARCHAR(60))
//   - Nullable: whether NULL is allowed
//   - Default: raw default expression, already quoted
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
	Default  string
}

// DDLOptions configures DDL.
type DDLOptions struct {
	// QuoteIdentifiers renders generated column names as quoted PostgreSQL
	// identifiers.
	QuoteIdentifiers bool
}

const ddlHeader = `
CREATE SCHEMA IF NOT EXISTS datasets;
CREATE TABLE IF NOT EXISTS datasets.data (
`

// storage columns carried by every dataset row, ahead of the record columns
var fixedColumns = [][2]string{
	{"tenant", "VARCHAR(60) NOT NULL"},
	{"id", "VARCHAR(60) NOT NULL"},
	{"create_timestamp", "TIMESTAMP WITH TIME ZONE DEFAULT NOW()"},
}

// ddlTrailer is the fixed indexing policy and metadata table of the dataset
// store. It does not depend on the schema.
const ddlTrailer = `
);

CREATE UNIQUE INDEX IF NOT EXISTS pkey ON datasets.data (
  id,
  monitoring_location_latitude,
  monitoring_location_longitude,
  activity_start_timestamp,
  activity_end_timestamp,
  characteristic_name,
  result_sample_fraction,
  result_analytical_method_id
);
CREATE INDEX IF NOT EXISTS tenant_idx ON datasets.data (tenant);
CREATE INDEX IF NOT EXISTS upload_id_idx ON datasets.data (upload_id);
CREATE INDEX IF NOT EXISTS latitude_idx ON datasets.data (monitoring_location_latitude);
CREATE INDEX IF NOT EXISTS longitude_idx ON datasets.data (monitoring_location_longitude);

CREATE TABLE IF NOT EXISTS datasets.meta (
  tenant        VARCHAR(60) NOT NULL,
  id            VARCHAR(60) UNIQUE NOT NULL,
  program_id    INTEGER,
  user_id       VARCHAR(64) NOT NULL,
  title         VARCHAR(255),
  description   TEXT,
  created       TIMESTAMP DEFAULT NOW(),
  modified      TIMESTAMP DEFAULT NOW()
);
`

// ColumnName maps a field name to its column name. Fields whose name contains
// "Time" report false: they are assumed to be folded into the timestamp
// column of their Date field and get no column of their own. Their values are
// not merged anywhere, so storing a record through this DDL drops them.
func ColumnName(field string) (string, bool) {
	if strings.Contains(field, "Time") {
		return "", false
	}
	return snake(strings.Replace(field, "Date", "Timestamp", 1)), true
}

// Columns returns the generated columns for fs in declaration order.
func Columns(fs []fields.FieldDescriptor) ([]ColumnDef, error) {
	out := make([]ColumnDef, 0, len(fs))
	for _, f := range fs {
		name, ok := ColumnName(f.Name)
		if !ok {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("artifact: field %q maps to an empty column name", f.Name)
		}
		c := ColumnDef{Name: name, SQLType: sqlType(f), Nullable: true}
		if d, ok := defaultLiteral(f); ok {
			c.Default = d
		} else if f.Required {
			c.Nullable = false
		}
		out = append(out, c)
	}
	return out, nil
}

// DDL renders the dataset store schema for fs.
func DDL(fs []fields.FieldDescriptor, opts DDLOptions) (string, error) {
	if len(fs) == 0 {
		return "", errors.New("artifact: at least one field is required")
	}
	cols, err := Columns(fs)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(fixedColumns)+len(cols))
	for _, fc := range fixedColumns {
		lines = append(lines, fmt.Sprintf("  %-33s%s", fc[0], fc[1]))
	}
	for _, c := range cols {
		lines = append(lines, "  "+renderColumn(c, opts))
	}
	var b strings.Builder
	b.WriteString(ddlHeader)
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString(ddlTrailer)
	return b.String(), nil
}

func renderColumn(c ColumnDef, opts DDLOptions) string {
	var sb strings.Builder
	if opts.QuoteIdentifiers {
		sb.WriteString(pgx.Identifier{c.Name}.Sanitize())
	} else {
		sb.WriteString(c.Name)
	}
	sb.WriteByte(' ')
	sb.WriteString(c.SQLType)
	if c.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	return sb.String()
}

func sqlType(f fields.FieldDescriptor) string {
	switch f.Type {
	case codec.TypeString:
		switch {
		case f.Constraints.MaxLength != nil && *f.Constraints.MaxLength > 0:
			return "VARCHAR(" + strconv.Itoa(*f.Constraints.MaxLength) + ")"
		case f.IsDate():
			return "TIMESTAMP WITH TIME ZONE"
		}
		return "TEXT"
	case codec.TypeNumber:
		return "NUMERIC"
	case codec.TypeInteger:
		return "INTEGER"
	case codec.TypeBoolean:
		return "BOOLEAN"
	}
	return "TEXT"
}

// defaultLiteral renders a truthy schema default as a quoted SQL literal.
// Empty strings, zero and false are not written as defaults.
func defaultLiteral(f fields.FieldDescriptor) (string, bool) {
	if !f.HasDefault {
		return "", false
	}
	var s string
	switch v := f.Default.(type) {
	case string:
		if v == "" {
			return "", false
		}
		s = v
	case bool:
		if !v {
			return "", false
		}
		s = "true"
	case nil:
		return "", false
	default:
		n, ok := codec.Number(v)
		if !ok {
			return "", false
		}
		if n == 0 {
			return "", false
		}
		s = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", true
}

var lower = cases.Lower(language.Und)

// snake converts an identifier to snake_case. Word boundaries are a
// lower-to-upper transition, the last capital of an acronym followed by a
// lower-case letter ("IDName" -> "id_name"), a letter-digit transition, and
// any run of non-alphanumeric characters.
func snake(s string) string {
	rs := []rune(s)
	var words []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, lower.String(string(rs[start:end])))
		}
		start = -1
	}
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := rs[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1]):
			flush(i)
			start = i
		case unicode.IsDigit(r) && unicode.IsLetter(prev):
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return strings.Join(words, "_")
}
