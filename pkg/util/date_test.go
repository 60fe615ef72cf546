package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeQuoteLayouts(t *testing.T) {
	got, ok := ParseTime("2024-10-10 15:59:00")
	if !ok || got.Hour() != 15 || got.Minute() != 59 {
		t.Fatalf("unexpected datetime %v %v", got, ok)
	}
	got, ok = ParseTime("2024-10-10")
	if !ok || got.Day() != 10 {
		t.Fatalf("unexpected date %v %v", got, ok)
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
	got = ParseTimeDefault("not a time", def)
	if !got.Equal(def) {
		t.Fatalf("expected default for invalid input")
	}
}

func TestSessionDay(t *testing.T) {
	// 2024-03-01 01:30 UTC is still Feb 29 in New York.
	ts := time.Date(2024, 3, 1, 1, 30, 0, 0, time.UTC).Unix()
	got := SessionDay(ts, "America/New_York")
	if got.Format(time.DateOnly) != "2024-02-29" {
		t.Fatalf("unexpected session day %s", got.Format(time.DateOnly))
	}
	if SessionDay(ts, "").Format(time.DateOnly) != "2024-03-01" {
		t.Fatalf("expected UTC fallback")
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if NormalizeSymbol(" aapl ") != "AAPL" {
		t.Fatalf("NormalizeSymbol")
	}
}
