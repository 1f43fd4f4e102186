package icron

import (
	"testing"
	"time"
)

func TestGetTriggerInfo(t *testing.T) {
	ref := time.Date(2026, 8, 5, 10, 30, 0, 0, time.UTC)

	info, err := GetTriggerInfo("0 0 * * *", ref)
	if err != nil {
		t.Fatalf("GetTriggerInfo: %v", err)
	}
	wantNext := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	if !info.Next.Equal(wantNext) {
		t.Errorf("Next = %v, want %v", info.Next, wantNext)
	}
	wantLast := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	if !info.Last.Equal(wantLast) {
		t.Errorf("Last = %v, want %v", info.Last, wantLast)
	}
	if info.TimeUntilNext <= 0 {
		t.Errorf("TimeUntilNext = %v, want positive", info.TimeUntilNext)
	}
}

func TestGetTriggerInfoInvalidExpression(t *testing.T) {
	if _, err := GetTriggerInfo("not a cron", time.Now()); err == nil {
		t.Fatal("expected error for invalid expression")
	}
}
