package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/hw2c/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEasterSunday(t *testing.T) {
	t.Parallel()

	for y, want := range map[int]time.Time{
		2022: date(2022, 4, 17),
		2023: date(2023, 4, 9),
		2024: date(2024, 3, 31),
		2025: date(2025, 4, 20),
	} {
		if got := calendar.EasterSunday(y); !got.Equal(want) {
			t.Fatalf("EasterSunday(%d) = %s, want %s", y, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestTargetHolidays(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		date(2024, 1, 1),
		date(2023, 4, 7),  // good friday
		date(2023, 4, 10), // easter monday
		date(2023, 5, 1),
		date(2023, 12, 25),
		date(2023, 12, 26),
	}
	for _, h := range holidays {
		if calendar.IsBusinessDay(calendar.TARGET, h) {
			t.Fatalf("%s should be a TARGET holiday", h.Format("2006-01-02"))
		}
	}
	if !calendar.IsBusinessDay(calendar.TARGET, date(2023, 4, 11)) {
		t.Fatalf("2023-04-11 should be a business day")
	}
	if !calendar.IsBusinessDay(calendar.WeekendsOnly, date(2023, 12, 25)) {
		t.Fatalf("WeekendsOnly should not observe Christmas")
	}
}

func TestAdjustModifiedFollowing(t *testing.T) {
	t.Parallel()

	// 2023-09-30 is a Saturday; following would cross into October.
	got := calendar.Adjust(calendar.TARGET, date(2023, 9, 30))
	if !got.Equal(date(2023, 9, 29)) {
		t.Fatalf("Adjust = %s, want 2023-09-29", got.Format("2006-01-02"))
	}
	got = calendar.AdjustFollowing(calendar.TARGET, date(2023, 9, 30))
	if !got.Equal(date(2023, 10, 2)) {
		t.Fatalf("AdjustFollowing = %s, want 2023-10-02", got.Format("2006-01-02"))
	}
}

func TestAddBusinessDaysSkipsEaster(t *testing.T) {
	t.Parallel()

	got := calendar.AddBusinessDays(calendar.TARGET, date(2023, 4, 6), 2)
	if !got.Equal(date(2023, 4, 12)) {
		t.Fatalf("AddBusinessDays = %s, want 2023-04-12", got.Format("2006-01-02"))
	}
	got = calendar.AddBusinessDays(calendar.TARGET, date(2022, 11, 15), 2)
	if !got.Equal(date(2022, 11, 17)) {
		t.Fatalf("spot = %s, want 2022-11-17", got.Format("2006-01-02"))
	}
}

func TestAdvanceEndOfMonth(t *testing.T) {
	t.Parallel()

	// 2023-02-28 is the last business day of February.
	got := calendar.Advance(calendar.TARGET, date(2023, 2, 28), 3, true)
	if !got.Equal(date(2023, 5, 31)) {
		t.Fatalf("Advance eom = %s, want 2023-05-31", got.Format("2006-01-02"))
	}
	got = calendar.Advance(calendar.TARGET, date(2023, 2, 28), 3, false)
	if !got.Equal(date(2023, 5, 29)) {
		t.Fatalf("Advance = %s, want 2023-05-29", got.Format("2006-01-02"))
	}
}
