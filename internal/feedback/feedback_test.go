package feedback

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestAppend_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "evaluations.csv")
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	entries := []Entry{
		{Date: at, Name: "Awa", Email: "awa@example.sn", Rating: 5, Message: "Très utile"},
		{Date: at, Rating: 0},
		{Date: at, Name: "Moussa", Rating: 3, Message: "Ajoutez les camions, svp"},
	}
	for _, e := range entries {
		if err := Append(path, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recs := readAll(t, path)
	if len(recs) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(recs))
	}
	if strings.Join(recs[0], ",") != "date,name,email,rating,feedback" {
		t.Errorf("header = %v", recs[0])
	}
	for _, r := range recs[1:] {
		if r[0] == "date" {
			t.Error("header repeated")
		}
	}
	if recs[1][0] != "2024-05-01 09:30:00" || recs[1][3] != "5" {
		t.Errorf("row = %v", recs[1])
	}
	if recs[3][4] != "Ajoutez les camions, svp" {
		t.Errorf("message with comma not preserved: %q", recs[3][4])
	}
}

func TestAppend_EmptyExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluations.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Append(path, Entry{Rating: 4}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	recs := readAll(t, path)
	if len(recs) != 2 || recs[0][0] != "date" {
		t.Errorf("expected header then row, got %v", recs)
	}
}

func TestAppend_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluations.csv")
	tests := []struct {
		name  string
		entry Entry
		field string
	}{
		{"rating too high", Entry{Rating: 6}, "rating"},
		{"negative rating", Entry{Rating: -1}, "rating"},
		{"bad email", Entry{Email: "not-an-email", Rating: 2}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Append(path, tt.entry)
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("Append() = %v, want ErrInvalidEntry", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name %s", err, tt.field)
			}
		})
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("invalid entries should not create the file")
	}
}

func TestRecord_StampsZeroDate(t *testing.T) {
	before := time.Now().Add(-time.Second)
	rec := Entry{Rating: 1}.Record()
	got, err := time.ParseInLocation(DateLayout, rec[0], time.Local)
	if err != nil {
		t.Fatalf("date %q not in layout: %v", rec[0], err)
	}
	if got.Before(before.Truncate(time.Second)) {
		t.Errorf("date %v should be now", got)
	}
}
