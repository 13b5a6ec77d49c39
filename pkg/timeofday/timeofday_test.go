package timeofday

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tod, err := Parse("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.Hour() != 9 || tod.Minute() != 30 {
		t.Errorf("expected 09:30, got %s", tod)
	}
}

func TestParse_PostgresForm(t *testing.T) {
	tod, err := Parse("14:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tod.String() != "14:00" {
		t.Errorf("expected 14:00, got %s", tod)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "25:00", "9h30", "09:61"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestAddAndBefore(t *testing.T) {
	tod := New(10, 0)
	next := tod.Add(30 * time.Minute)
	if next.String() != "10:30" {
		t.Errorf("expected 10:30, got %s", next)
	}
	if !tod.Before(next) {
		t.Error("10:00 should be before 10:30")
	}
	if next.Before(tod) {
		t.Error("10:30 should not be before 10:00")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tod := New(8, 15)
	data, err := json.Marshal(tod)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"08:15"` {
		t.Errorf(`expected "08:15", got %s`, data)
	}
	var back TimeOfDay
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != tod {
		t.Errorf("round trip mismatch: %s != %s", back, tod)
	}
}

func TestAt(t *testing.T) {
	date, _ := ParseDate("2025-03-10")
	at := New(9, 30).At(date, time.UTC)
	if at.Hour() != 9 || at.Minute() != 30 || at.Day() != 10 {
		t.Errorf("unexpected anchored time: %v", at)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("10/03/2025"); err == nil {
		t.Error("expected error for non ISO date")
	}
}
