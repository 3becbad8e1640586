package output

import (
	"io"

	"github.com/FursAndrey/staffsync/internal/cmd/table"
)

// Render writes raw in format. Table formats write rows() instead, so commands
// keep the structured value for json and yaml and a flattened view for humans.
func Render(w io.Writer, format Format, raw any, rows func() table.Data) error {
	formatter := NewFormatter(format)
	if format.IsTable() && rows != nil {
		return formatter.Format(w, rows())
	}
	return formatter.Format(w, raw)
}
