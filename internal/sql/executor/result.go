package executor

import (
	"strings"

	"github.com/tuannm99/heapdb/internal/record"
)

// Result is what one executed statement returns to the caller: an
// optional result set plus a short human-readable message.
type Result struct {
	ColumnNames []string
	ColumnAttrs []record.ColumnAttribute
	Rows        []record.Row
	Message     string
}

// String renders the result set the way the interactive shell prints it:
// column names, a rule, one line per row with TEXT quoted and BOOLEAN as
// true/false, then the message.
func (r *Result) String() string {
	var b strings.Builder
	if r.ColumnNames != nil {
		for _, name := range r.ColumnNames {
			b.WriteString(name)
			b.WriteByte(' ')
		}
		b.WriteString("\n+")
		for range r.ColumnNames {
			b.WriteString("----------+")
		}
		b.WriteByte('\n')
		for _, row := range r.Rows {
			for _, name := range r.ColumnNames {
				b.WriteString(row[name].String())
				b.WriteByte(' ')
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString(r.Message)
	return b.String()
}
