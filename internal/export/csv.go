// Package export renders a ledger snapshot as CSV.
package export

import (
	"fmt"
	"io"
	"strings"

	"tally/internal/core"
)

const header = "Date,Description,Category,Type,Amount"

// WriteCSV writes the snapshot in row order with the fixed header
// Date,Description,Category,Type,Amount. The description column is always
// double-quoted with embedded quotes doubled; amounts keep their stored sign
// and are rendered with two decimals. encoding/csv quotes only when forced,
// so the row format is emitted directly.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := fmt.Fprintln(w, header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range txs {
		desc := strings.ReplaceAll(t.Description, `"`, `""`)
		_, err := fmt.Fprintf(w, "%s,\"%s\",%s,%s,%s\n",
			t.Date, desc, t.Category, t.Type, t.Amount.StringFixed(2))
		if err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}
