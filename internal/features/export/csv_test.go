package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToCSVEmptyInput(t *testing.T) {
	out, err := ToCSV(nil, nil)
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("ToCSV(nil) = %q, want empty output with no header", out)
	}
}

func TestToCSVHeaderInference(t *testing.T) {
	rows := []map[string]any{
		{"name": "Acme", "value": 100.0, "active": true},
	}

	out, err := ToCSV(rows, nil)
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	wantHeader := []string{"active", "name", "value"}
	for i, h := range wantHeader {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q (sorted keys)", i, records[0][i], h)
		}
	}
}

// Encoding then parsing a record set containing commas, quotes and embedded
// newlines must reproduce the original values exactly.
func TestToCSVRoundTrip(t *testing.T) {
	rows := []map[string]any{
		{"name": `Quote "Heavy" Corp`, "note": "line one\nline two"},
		{"name": "Comma, Inc", "note": "plain"},
		{"name": "", "note": `both, "and" more`},
	}

	out, err := ToCSV(rows, []string{"name", "note"})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	reader := csv.NewReader(bytes.NewReader(out))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	if len(records) != len(rows)+1 {
		t.Fatalf("got %d records, want %d", len(records), len(rows)+1)
	}

	for i, row := range rows {
		got := records[i+1]
		if got[0] != row["name"] || got[1] != row["note"] {
			t.Errorf("row %d = %v, want [%v %v]", i, got, row["name"], row["note"])
		}
	}
}

func TestToCSVMissingKeysEncodeEmpty(t *testing.T) {
	rows := []map[string]any{
		{"a": "1", "b": "2"},
		{"a": "3"},
	}

	out, err := ToCSV(rows, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ToCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if records[2][1] != "" {
		t.Errorf("missing key cell = %q, want empty", records[2][1])
	}
}

func TestCellString(t *testing.T) {
	oid := primitive.NewObjectID()
	ts := time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		val  any
		want string
	}{
		{name: "Nil", val: nil, want: ""},
		{name: "String", val: "hello", want: "hello"},
		{name: "Number", val: 42.5, want: "42.5"},
		{name: "Time", val: ts, want: "2024-03-01 09:30:00"},
		{name: "ObjectID", val: oid, want: oid.Hex()},
		{name: "Lookup Map", val: map[string]interface{}{"id": "x", "name": "Acme"}, want: "Acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellString(tt.val); got != tt.want {
				t.Errorf("CellString(%v) = %q, want %q", tt.val, got, tt.want)
			}
		})
	}
}
