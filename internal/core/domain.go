package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"
)

// The fixed category set offered by the form. Presence is validated at the
// boundary; the store accepts any non-empty category.
const (
	CategorySalary    = "Salary"
	CategoryFood      = "Food"
	CategoryTransport = "Transport"
	CategoryRent      = "Rent"
	CategoryFreelance = "Freelance"
	CategoryOther     = "Other"
)

type (
	TxType string

	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	// Transaction is one ledger entry. Amount is signed: Income entries
	// carry a non-negative amount, Expense entries a non-positive one.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Type        TxType          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// Entry holds the mutable fields of a transaction after boundary
	// validation, ready to be handed to the store.
	Entry struct {
		Date        Date
		Description string
		Category    string
		Type        TxType
		Amount      decimal.Decimal
	}

	// User is an account. The password never appears here; only its hash
	// lives in storage.
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
)

var (
	ErrMissingFields = errors.New("missing fields")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Categories returns the fixed category set in form order.
func Categories() []string {
	return []string{
		CategorySalary,
		CategoryFood,
		CategoryTransport,
		CategoryRent,
		CategoryFreelance,
		CategoryOther,
	}
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// FormInput carries the raw field values supplied by the presentation layer.
type FormInput struct {
	Date        string
	Description string
	Category    string
	Type        string
	Amount      string
}

// ParseEntry validates raw form values and produces a store-ready Entry.
// All fields must be present and the description non-empty after trimming,
// otherwise ErrMissingFields. The amount text must be a non-negative decimal
// magnitude, otherwise ErrInvalidAmount; it is negated for Expense entries so
// the stored sign always matches the type. No store call happens on failure.
func ParseEntry(in FormInput) (Entry, error) {
	desc := strings.TrimSpace(in.Description)
	txType := TxType(strings.TrimSpace(in.Type))
	if strings.TrimSpace(in.Date) == "" || desc == "" ||
		strings.TrimSpace(in.Category) == "" || !txType.Valid() ||
		strings.TrimSpace(in.Amount) == "" {
		return Entry{}, ErrMissingFields
	}

	date, err := ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return Entry{}, ErrMissingFields
	}

	amount, err := ParseAmount(in.Amount, txType)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Date:        date,
		Description: desc,
		Category:    strings.TrimSpace(in.Category),
		Type:        txType,
		Amount:      amount,
	}, nil
}
