// Package artifact projects an ordered field list into the text artifacts
// handed to downstream tooling: a CSV header template, a table schema
// descriptor and SQL DDL. Each deriver is a pure function of its input.
package artifact

import (
	"strings"

	"github.com/reoring/wqschema/fields"
)

// CSV returns the header template: every field name double-quoted, comma
// separated, terminated by CRLF. Names are written as declared.
func CSV(fs []fields.FieldDescriptor) string {
	var b strings.Builder
	for i, f := range fs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(f.Name)
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	return b.String()
}
