package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/calendar"
	"github.com/clinicdesk/clinic-secretary/internal/doctors"
	"github.com/clinicdesk/clinic-secretary/internal/notify"
)

var slotPrompts = map[string]string{
	SlotName:      "Can I have your full name, please?",
	SlotPhone:     "What phone number can we reach you at?",
	SlotDate:      "What day would you like to come in? You can say things like tomorrow or next week.",
	SlotTime:      "What time works best for you? We see patients between 9 AM and 5 PM.",
	SlotSpecialty: "Which specialty do you need? We offer general practice, cardiology, dermatology, pediatrics and orthopedics.",
	SlotType:      "What kind of visit is this? For example a consultation, a checkup or a follow-up.",
}

func (e *Engine) handleSchedule(ctx context.Context, message string, st *State) *Result {
	if len(st.Required) == 0 {
		st.Required = append([]string{}, requiredSlots...)
	}
	extracted := ExtractSchedulingInfo(message, e.clock())
	st.Merge(extracted)
	if len(extracted) == 0 {
		fillAwaitedSlot(message, st)
	}

	if missing := st.Missing(); len(missing) > 0 {
		st.Awaiting = missing[0]
		return &Result{Response: e.prompt(missing[0], st), Status: StatusCollecting}
	}
	st.Awaiting = ""

	// All slots present; the combined timestamp must parse before booking.
	scheduledAt, ok := e.combinedTimestamp(st)
	if !ok {
		delete(st.Collected, SlotTime)
		delete(st.Collected, SlotDatetime)
		st.Awaiting = SlotTime
		return &Result{Response: e.prompt(SlotTime, st), Status: StatusCollecting}
	}
	return e.finalize(ctx, st, scheduledAt)
}

// fillAwaitedSlot takes a reply no extraction heuristic claimed as the answer
// to the slot the previous prompt asked for. Only free-text slots accept bare
// answers; dates and times must come through the extractor so the collected
// values stay parseable. The caller ensures the extractor matched nothing.
func fillAwaitedSlot(message string, st *State) {
	switch st.Awaiting {
	case SlotName, SlotSpecialty, SlotType:
	default:
		return
	}
	if st.Collected[st.Awaiting] != "" {
		return
	}
	words := strings.Fields(strings.ToLower(strings.TrimSpace(message)))
	if len(words) == 0 || len(words) > 4 {
		return
	}
	var kept []string
	for _, w := range words {
		w = strings.Trim(w, ".,!?")
		if w == "" {
			return
		}
		if _, stop := nameStopWords[w]; stop {
			return
		}
		if strings.ContainsAny(w, "0123456789") {
			return
		}
		if st.Awaiting == SlotName {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		kept = append(kept, w)
	}
	st.Collected[st.Awaiting] = strings.Join(kept, " ")
}

func (e *Engine) prompt(slot string, st *State) string {
	prompt, ok := slotPrompts[slot]
	if !ok {
		prompt = "Could you tell me a bit more?"
	}
	if name := st.Collected[SlotName]; name != "" && slot != SlotName {
		return fmt.Sprintf("Thanks, %s! %s", firstName(name), prompt)
	}
	return prompt
}

func (e *Engine) combinedTimestamp(st *State) (time.Time, bool) {
	combined := st.Collected[SlotDatetime]
	if combined == "" && st.Collected[SlotDate] != "" && st.Collected[SlotTime] != "" {
		combined = st.Collected[SlotDate] + " " + st.Collected[SlotTime]
	}
	if combined == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", combined, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	st.Collected[SlotDatetime] = combined
	return t, true
}

// finalize books the appointment. The database write and the calendar write
// are independent: a calendar failure leaves the appointment committed and
// only flags a warning.
func (e *Engine) finalize(ctx context.Context, st *State, scheduledAt time.Time) *Result {
	patient, err := e.patients.UpsertByPhone(ctx, st.Collected[SlotName], st.Collected[SlotPhone], "")
	if err != nil {
		e.logger.Error("booking patient upsert failed", "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}

	doctor, err := e.resolveDoctor(ctx, st.Collected[SlotSpecialty])
	if err != nil {
		e.logger.Error("booking doctor lookup failed", "specialty", st.Collected[SlotSpecialty], "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}

	appt, err := e.appointments.Create(ctx, appointments.CreateRequest{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: scheduledAt,
		Type:        st.Collected[SlotType],
	})
	if errors.Is(err, appointments.ErrTimeSlotTaken) {
		delete(st.Collected, SlotTime)
		delete(st.Collected, SlotDatetime)
		st.Awaiting = SlotTime
		return &Result{
			Response: fmt.Sprintf("I'm sorry, %s is no longer available with %s. What other time works for you?",
				scheduledAt.Format("03:04 PM"), doctor.Name),
			Status: StatusCollecting,
		}
	}
	if err != nil {
		e.logger.Error("booking create failed", "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}

	result := &Result{Status: StatusCompleted, AppointmentID: appt.ID.String()}

	if e.calendar != nil && e.calendar.Ready() {
		event, calErr := e.calendar.CreateEvent(ctx, calendar.EventInput{
			Summary:     fmt.Sprintf("%s - %s", appt.Type, patient.Name),
			Description: fmt.Sprintf("Appointment with %s. Patient phone: %s.", doctor.Name, patient.Phone),
			Start:       scheduledAt,
			End:         scheduledAt.Add(time.Hour),
		})
		if calErr != nil {
			e.logger.Warn("calendar event creation failed, appointment kept", "appointment_id", appt.ID, "error", calErr)
			result.CalendarWarning = true
		} else {
			result.CalendarEventID = event.ID
		}
	}

	if e.notifier != nil {
		e.notifier.SendConfirmation(ctx, patient.Phone, notify.Details{
			PatientName:     patient.Name,
			DoctorName:      doctor.Name,
			AppointmentType: appt.Type,
			When:            scheduledAt,
		})
	}

	result.Response = fmt.Sprintf("You're all set, %s! Your %s with %s is booked for %s at %s. We'll send you a reminder before the visit.",
		firstName(patient.Name), appt.Type, doctor.Name,
		scheduledAt.Format("Monday, January 2"), scheduledAt.Format("03:04 PM"))
	return result
}

// resolveDoctor picks by specialty when one was requested, and otherwise
// falls back to any doctor on the roster.
func (e *Engine) resolveDoctor(ctx context.Context, specialty string) (*doctors.Doctor, error) {
	if specialty != "" {
		doctor, err := e.doctors.GetBySpecialty(ctx, specialty)
		if err == nil {
			return doctor, nil
		}
		if !errors.Is(err, doctors.ErrNotFound) {
			return nil, err
		}
	}
	return e.doctors.First(ctx)
}
