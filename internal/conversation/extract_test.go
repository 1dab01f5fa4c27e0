package conversation

import (
	"reflect"
	"testing"
	"time"
)

// Wednesday.
var refNow = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

func TestExtractRelativeDates(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"can I come in today?", "2026-09-02"},
		{"book me for tomorrow", "2026-09-03"},
		{"sometime next week please", "2026-09-09"},
		{"any slot this week", "2026-09-03"},
	}
	for _, tt := range tests {
		got := ExtractSchedulingInfo(tt.message, refNow)
		if got[SlotDate] != tt.want {
			t.Fatalf("date for %q = %q, want %q", tt.message, got[SlotDate], tt.want)
		}
	}
}

func TestExtractThisWeekSkipsWeekend(t *testing.T) {
	// From Friday, "this week" rolls to the next weekday.
	friday := time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC)
	got := ExtractSchedulingInfo("any time this week", friday)
	if got[SlotDate] != "2026-09-07" {
		t.Fatalf("date = %q, want 2026-09-07 (Monday)", got[SlotDate])
	}
}

func TestExtractTimeOfDayWords(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"morning works for me", "09:00"},
		{"in the afternoon", "14:00"},
		{"evening please", "17:00"},
		{"as early as possible", "08:00"},
		{"late in the day", "16:00"},
	}
	for _, tt := range tests {
		got := ExtractSchedulingInfo(tt.message, refNow)
		if got[SlotTime] != tt.want {
			t.Fatalf("time for %q = %q, want %q", tt.message, got[SlotTime], tt.want)
		}
	}
}

func TestExtractClockTimes(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"how about 3pm?", "15:00"},
		{"3:30 pm works", "15:30"},
		{"9 am is fine", "09:00"},
		{"12pm sharp", "12:00"},
		{"12am if you're open", "00:00"},
		{"11:45am", "11:45"},
	}
	for _, tt := range tests {
		got := ExtractSchedulingInfo(tt.message, refNow)
		if got[SlotTime] != tt.want {
			t.Fatalf("time for %q = %q, want %q", tt.message, got[SlotTime], tt.want)
		}
	}
}

func TestExtractClockOverridesWords(t *testing.T) {
	got := ExtractSchedulingInfo("tomorrow afternoon, say 4pm", refNow)
	if got[SlotTime] != "16:00" {
		t.Fatalf("time = %q, want 16:00", got[SlotTime])
	}
}

func TestExtractAppointmentType(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"I need a consultation", "consultation"},
		{"just a routine check-up", "checkup"},
		{"a follow up on my last visit", "follow-up"},
		{"I need a specialist", "specialist"},
	}
	for _, tt := range tests {
		got := ExtractSchedulingInfo(tt.message, refNow)
		if got[SlotType] != tt.want {
			t.Fatalf("type for %q = %q, want %q", tt.message, got[SlotType], tt.want)
		}
	}
}

func TestExtractSpecialty(t *testing.T) {
	got := ExtractSchedulingInfo("I need to see cardiology", refNow)
	if got[SlotSpecialty] != "cardiology" {
		t.Fatalf("specialty = %q, want cardiology", got[SlotSpecialty])
	}
}

func TestExtractPhoneAndName(t *testing.T) {
	got := ExtractSchedulingInfo("my name is maria silva, my number is 555-123-4567", refNow)
	if got[SlotName] != "Maria Silva" {
		t.Fatalf("name = %q, want Maria Silva", got[SlotName])
	}
	if got[SlotPhone] != "5551234567" {
		t.Fatalf("phone = %q, want 5551234567", got[SlotPhone])
	}
}

func TestExtractNameRejectsFiller(t *testing.T) {
	got := ExtractSchedulingInfo("i'm looking for an appointment", refNow)
	if got[SlotName] != "" {
		t.Fatalf("name = %q, want empty", got[SlotName])
	}
}

func TestExtractCombinedDatetime(t *testing.T) {
	got := ExtractSchedulingInfo("tomorrow at 3pm", refNow)
	if got[SlotDatetime] != "2026-09-03 15:00" {
		t.Fatalf("datetime = %q, want 2026-09-03 15:00", got[SlotDatetime])
	}

	// Date alone yields no combined timestamp.
	got = ExtractSchedulingInfo("tomorrow works", refNow)
	if got[SlotDatetime] != "" {
		t.Fatalf("datetime = %q, want empty", got[SlotDatetime])
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	message := "my name is maria silva, tomorrow at 3pm for a cardiology consultation, 555-123-4567"
	first := ExtractSchedulingInfo(message, refNow)
	second := ExtractSchedulingInfo(message, refNow)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %v vs %v", first, second)
	}

	st := NewState()
	st.Merge(first)
	snapshot := map[string]string{}
	for k, v := range st.Collected {
		snapshot[k] = v
	}
	st.Merge(second)
	if !reflect.DeepEqual(st.Collected, snapshot) {
		t.Fatalf("re-merging the same extraction changed state: %v vs %v", st.Collected, snapshot)
	}
}

func TestTo24Hour(t *testing.T) {
	tests := []struct {
		hour int
		ampm string
		want int
	}{
		{3, "pm", 15},
		{12, "pm", 12},
		{12, "am", 0},
		{9, "am", 9},
		{11, "pm", 23},
	}
	for _, tt := range tests {
		if got := to24Hour(tt.hour, tt.ampm); got != tt.want {
			t.Fatalf("to24Hour(%d, %s) = %d, want %d", tt.hour, tt.ampm, got, tt.want)
		}
	}
}
