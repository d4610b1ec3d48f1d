package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-10-01")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected empty string to fail")
	}
	if _, ok := ParseDate("10/01/2024"); ok {
		t.Fatalf("expected slash format to fail")
	}
}

func TestAddMonths(t *testing.T) {
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	got := AddMonths(start, 3)
	if FormatDate(got) != "2025-02-01" {
		t.Fatalf("unexpected month addition %v", got)
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		start string
		n     int
		want  string
	}{
		{"2024-01-31", 1, "2024-02-29"}, // leap February
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2024-03-31"},
		{"2024-01-31", 3, "2024-04-30"},
		{"2024-10-31", 4, "2025-02-28"}, // year rollover
		{"2024-02-29", 12, "2025-02-28"},
	}
	for _, c := range cases {
		start, ok := ParseDate(c.start)
		if !ok {
			t.Fatalf("parse %s", c.start)
		}
		if got := FormatDate(AddMonths(start, c.n)); got != c.want {
			t.Fatalf("%s + %d months = %s, want %s", c.start, c.n, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if v := Clamp(0, 1, 12); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	if v := Clamp(20, 1, 12); v != 12 {
		t.Fatalf("expected 12, got %d", v)
	}
	if v := Clamp(5, 1, 12); v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
}
