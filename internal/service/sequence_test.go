package service

import (
	"testing"
	"time"
)

func TestSequenceDayUsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC; the counter key
	// must follow UTC so all app instances agree on the day boundary.
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2025, 3, 1, 23, 30, 0, 0, loc)
	if got := sequenceDay(local); got != "20250302" {
		t.Fatalf("sequenceDay = %q, want 20250302", got)
	}
	utc := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := sequenceDay(utc); got != "20250301" {
		t.Fatalf("sequenceDay = %q, want 20250301", got)
	}
}

func TestFormatReceiptNumber(t *testing.T) {
	if got := FormatReceiptNumber("BELLA", 42, "20250301", 7); got != "BELLA42-20250301-0007" {
		t.Fatalf("got %q", got)
	}
	// Empty prefix falls back to a generic one.
	if got := FormatReceiptNumber("", 1, "20250301", 1); got != "RCP1-20250301-0001" {
		t.Fatalf("got %q", got)
	}
	// Counters past 9999 widen instead of truncating.
	if got := FormatReceiptNumber("RCP", 1, "20250301", 12345); got != "RCP1-20250301-12345" {
		t.Fatalf("got %q", got)
	}
}
