package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	clockRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	phoneRe = regexp.MustCompile(`\+?[\d][\d\-\s().]{6,}\d`)
	nameRe  = regexp.MustCompile(`(?:my name is|i am|i'm|this is)\s+([a-z]+(?:\s+[a-z]+){0,2})`)
)

// nameStopWords reject false positives from the "i am ..." pattern.
var nameStopWords = map[string]struct{}{
	"looking": {}, "trying": {}, "calling": {}, "going": {}, "wondering": {},
	"interested": {}, "here": {}, "sorry": {}, "not": {}, "a": {}, "an": {},
	"the": {}, "having": {}, "feeling": {}, "sick": {}, "available": {},
}

var specialties = []string{
	"general practice",
	"cardiology",
	"dermatology",
	"pediatrics",
	"orthopedics",
	"neurology",
	"gynecology",
	"ophthalmology",
	"psychiatry",
}

// appointmentTypeFamilies are matched in order; the first family with a
// keyword in the message wins.
var appointmentTypeFamilies = []struct {
	name     string
	keywords []string
}{
	{"consultation", []string{"consultation", "consult"}},
	{"checkup", []string{"checkup", "check-up", "check up", "exam", "physical"}},
	{"follow-up", []string{"follow-up", "follow up", "followup"}},
	{"emergency", []string{"emergency", "urgent"}},
	{"routine", []string{"routine"}},
	{"specialist", []string{"specialist"}},
}

// ExtractSchedulingInfo pulls booking slots out of a message. Heuristics are
// independent and each overwrites its slot on match, so running the same
// message twice yields the same map. The reference time anchors relative
// dates.
func ExtractSchedulingInfo(message string, now time.Time) map[string]string {
	msg := strings.ToLower(message)
	out := map[string]string{}

	if date, ok := extractDate(msg, now); ok {
		out[SlotDate] = date
	}
	if t, ok := extractTime(msg); ok {
		out[SlotTime] = t
	}
	for _, family := range appointmentTypeFamilies {
		if containsAny(msg, family.keywords) {
			out[SlotType] = family.name
			break
		}
	}
	for _, specialty := range specialties {
		if strings.Contains(msg, specialty) {
			out[SlotSpecialty] = specialty
			break
		}
	}
	if phone, ok := extractPhone(msg); ok {
		out[SlotPhone] = phone
	}
	if name, ok := extractName(msg); ok {
		out[SlotName] = name
	}

	if out[SlotDate] != "" && out[SlotTime] != "" {
		combined := out[SlotDate] + " " + out[SlotTime]
		if _, err := time.Parse("2006-01-02 15:04", combined); err == nil {
			out[SlotDatetime] = combined
		}
	}
	return out
}

func extractDate(msg string, now time.Time) (string, bool) {
	const layout = "2006-01-02"
	switch {
	case strings.Contains(msg, "today"):
		return now.Format(layout), true
	case strings.Contains(msg, "tomorrow"):
		return now.AddDate(0, 0, 1).Format(layout), true
	case strings.Contains(msg, "next week"):
		return now.AddDate(0, 0, 7).Format(layout), true
	case strings.Contains(msg, "this week"):
		d := now.AddDate(0, 0, 1)
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		return d.Format(layout), true
	}
	return "", false
}

func extractTime(msg string) (string, bool) {
	found := ""
	switch {
	case strings.Contains(msg, "morning"):
		found = "09:00"
	case strings.Contains(msg, "afternoon"):
		found = "14:00"
	case strings.Contains(msg, "evening"):
		found = "17:00"
	case strings.Contains(msg, "early"):
		found = "08:00"
	case strings.Contains(msg, "late"):
		found = "16:00"
	}

	if m := clockRe.FindStringSubmatch(msg); m != nil {
		hour, err := strconv.Atoi(m[1])
		if err == nil && hour >= 1 && hour <= 12 {
			minute := 0
			if m[2] != "" {
				minute, _ = strconv.Atoi(m[2])
			}
			if minute >= 0 && minute <= 59 {
				found = fmt.Sprintf("%02d:%02d", to24Hour(hour, m[3]), minute)
			}
		}
	}
	return found, found != ""
}

// to24Hour converts a 12-hour clock reading: pm adds twelve except at noon,
// 12am is midnight.
func to24Hour(hour int, ampm string) int {
	if ampm == "pm" && hour != 12 {
		return hour + 12
	}
	if ampm == "am" && hour == 12 {
		return 0
	}
	return hour
}

func extractPhone(msg string) (string, bool) {
	for _, candidate := range phoneRe.FindAllString(msg, -1) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, candidate)
		if len(digits) >= 8 && len(digits) <= 15 {
			return digits, true
		}
	}
	return "", false
}

func extractName(msg string) (string, bool) {
	m := nameRe.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	words := strings.Fields(m[1])
	var kept []string
	for _, w := range words {
		if _, stop := nameStopWords[w]; stop {
			break
		}
		kept = append(kept, strings.ToUpper(w[:1])+w[1:])
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

func containsAny(msg string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
