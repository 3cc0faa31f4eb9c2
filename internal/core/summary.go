package core

import "github.com/shopspring/decimal"

// Totals is the running summary rendered above the ledger.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Breakdown holds per-category sums for the two pie charts. Both maps carry
// positive values; iteration order is unspecified and consumers sort for
// display.
type Breakdown struct {
	Income  map[string]decimal.Decimal `json:"incomeByCategory"`
	Expense map[string]decimal.Decimal `json:"expenseByCategory"`
}

// ComputeTotals sums a point-in-time snapshot. Amounts > 0 count as income;
// the rest count as expense by absolute value, so a zero amount lands in the
// expense branch with zero magnitude and moves neither total. Callers must
// recompute after every mutation; nothing here observes the store.
func ComputeTotals(txs []Transaction) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range txs {
		if t.Amount.IsPositive() {
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount.Abs())
		}
	}
	return Totals{
		Income:  income,
		Expense: expense,
		Balance: income.Sub(expense),
	}
}

// ComputeBreakdown partitions the snapshot by the same sign rule as
// ComputeTotals and accumulates per-category sums.
func ComputeBreakdown(txs []Transaction) Breakdown {
	b := Breakdown{
		Income:  make(map[string]decimal.Decimal),
		Expense: make(map[string]decimal.Decimal),
	}
	for _, t := range txs {
		if t.Amount.IsPositive() {
			b.Income[t.Category] = b.Income[t.Category].Add(t.Amount)
		} else {
			b.Expense[t.Category] = b.Expense[t.Category].Add(t.Amount.Abs())
		}
	}
	return b
}
