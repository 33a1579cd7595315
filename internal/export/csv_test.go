package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"finvue/internal/core"
)

func TestCSV(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Date: core.NewDate(2024, 3, 12), Amount: core.Money{Cents: 14550}, Type: core.Expense, Category: "Groceries", Description: "Whole Foods Market"},
		{ID: "2", Date: core.NewDate(2024, 3, 1), Amount: core.Money{Cents: 500000}, Type: core.Income, Category: "Salary", Description: `Bonus "Q1", paid`},
	}
	got, err := CSV(txs)
	if err != nil {
		t.Fatal(err)
	}
	want := "Date,Description,Type,Category,Amount\n" +
		"2024-03-12,\"Whole Foods Market\",expense,Groceries,145.5\n" +
		"2024-03-01,\"Bonus \"\"Q1\"\", paid\",income,Salary,5000"
	if string(got) != want {
		t.Fatalf("CSV mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestCSVEmpty(t *testing.T) {
	if _, err := CSV(nil); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, nil); !errors.Is(err, ErrNothingToExport) || buf.Len() != 0 {
		t.Fatalf("Write should emit nothing, got %q %v", buf.String(), err)
	}
}

func TestDemoExportRowCount(t *testing.T) {
	got, err := CSV(core.DemoTransactions())
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(got, []byte("\n")); n != 21 {
		t.Fatalf("expected header plus 21 rows, got %d line breaks", n)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := Filename(now); got != "finvue_export_2024-03-09.csv" {
		t.Fatalf("Filename = %q", got)
	}
}
