package utils

import (
	"testing"
	"time"
)

func TestUniqueSlicePreservesOrder(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestConvertToDateUsesLocalDay(t *testing.T) {
	// 23:30 UTC is already the next morning in Ho Chi Minh City.
	in := time.Date(2026, 9, 15, 23, 30, 0, 0, time.UTC)
	got, err := ConvertToDate(in, "")
	if err != nil {
		t.Fatalf("ConvertToDate: %v", err)
	}
	y, m, d := got.Date()
	if y != 2026 || m != time.September || d != 16 {
		t.Fatalf("got %s, want local day 2026-09-16", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Fatalf("expected midnight, got %s", got)
	}
}

func TestConvertToDateRejectsUnknownZone(t *testing.T) {
	if _, err := ConvertToDate(time.Now(), "Mars/Olympus_Mons"); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}
