package core

import (
	"errors"
	"testing"
)

func validInput() FormInput {
	return FormInput{
		Date:        "2025-03-14",
		Description: "Groceries",
		Category:    CategoryFood,
		Type:        "Expense",
		Amount:      "42.50",
	}
}

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry(validInput())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Date.String() != "2025-03-14" {
		t.Fatalf("date = %s", e.Date)
	}
	if e.Amount.String() != "-42.5" {
		t.Fatalf("expense amount not negated: %s", e.Amount)
	}
	if e.Type != Expense {
		t.Fatalf("type = %s", e.Type)
	}
}

func TestParseEntryIncomeKeepsSign(t *testing.T) {
	in := validInput()
	in.Type = "Income"
	in.Amount = "1000"
	e, err := ParseEntry(in)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Amount.String() != "1000" {
		t.Fatalf("income amount = %s", e.Amount)
	}
}

func TestParseEntryMissingFields(t *testing.T) {
	cases := []func(*FormInput){
		func(in *FormInput) { in.Date = "" },
		func(in *FormInput) { in.Description = "   " },
		func(in *FormInput) { in.Category = "" },
		func(in *FormInput) { in.Type = "" },
		func(in *FormInput) { in.Type = "Transfer" },
		func(in *FormInput) { in.Amount = "" },
		func(in *FormInput) { in.Date = "14/03/2025" }, // unparseable date
	}
	for i, mutate := range cases {
		in := validInput()
		mutate(&in)
		if _, err := ParseEntry(in); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("case %d: expected ErrMissingFields, got %v", i, err)
		}
	}
}

func TestParseEntryInvalidAmount(t *testing.T) {
	for _, amount := range []string{"abc", "12.3.4", "-5", "+5"} {
		in := validInput()
		in.Amount = amount
		if _, err := ParseEntry(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestParseEntryTrimsDescription(t *testing.T) {
	in := validInput()
	in.Description = "  coffee  "
	e, err := ParseEntry(in)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Description != "coffee" {
		t.Fatalf("description = %q", e.Description)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, 12, 31)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-12-31"` {
		t.Fatalf("marshaled = %s", b)
	}
	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("roundtrip mismatch: %s", back)
	}
}
