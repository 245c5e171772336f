// Package csvexport renders ledger entries into the delimited export file
// consumed by the downstream accounting system.
package csvexport

import (
	"strings"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	"github.com/kritsadas/ledger_export_app/internal/utils/money"
)

// bom is prepended so spreadsheet tools detect UTF-8 (Thai descriptions).
const bom = "\uFEFF"

const batchHeader = "Entry ID,Date,Account,Debit,Credit,Description"

// Sanitize neutralizes cell content that a spreadsheet would evaluate as a
// formula and escapes embedded quotes.
func Sanitize(val string) string {
	if strings.HasPrefix(val, "=") || strings.HasPrefix(val, "+") ||
		strings.HasPrefix(val, "-") || strings.HasPrefix(val, "@") {
		val = "'" + val
	}
	val = strings.ReplaceAll(val, `"`, `""`)
	if strings.ContainsAny(val, ",\n") {
		val = `"` + val + `"`
	}
	return val
}

// EntryLine renders a single entry as one export row. Debit and credit are
// mutually exclusive columns; the amount is emitted with exactly two decimal
// places converted from minor units.
func EntryLine(e domain.LedgerEntry) string {
	debit, credit := "0.00", "0.00"
	switch e.Direction {
	case domain.Debit:
		debit = money.Format(e.Amount)
	case domain.Credit:
		credit = money.Format(e.Amount)
	}
	cols := []string{
		Sanitize(e.EntryID),
		e.EntryDate.Format("2006-01-02"),
		Sanitize(e.AccountCode),
		debit,
		credit,
		Sanitize(e.Description),
	}
	return strings.Join(cols, ",")
}

// RenderBatch builds the daily batch file for the given entries. Rows are
// accumulated in a slice and joined once; a totals footer carries the summed
// debit and credit columns so an out-of-balance file is visible on sight.
func RenderBatch(entries []domain.LedgerEntry) []byte {
	rows := make([]string, 0, len(entries)+3)
	rows = append(rows, batchHeader)

	var totalDebit, totalCredit int64
	for _, e := range entries {
		switch e.Direction {
		case domain.Debit:
			totalDebit += e.Amount
		case domain.Credit:
			totalCredit += e.Amount
		}
		rows = append(rows, EntryLine(e))
	}

	rows = append(rows, "")
	rows = append(rows, "TOTALS,,,"+money.Format(totalDebit)+","+money.Format(totalCredit)+",")

	return []byte(bom + strings.Join(rows, "\n"))
}
