package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-secretary/internal/appointments"
	"github.com/clinicdesk/clinic-secretary/internal/calendar"
	"github.com/clinicdesk/clinic-secretary/internal/clinicinfo"
	"github.com/clinicdesk/clinic-secretary/internal/doctors"
	"github.com/clinicdesk/clinic-secretary/internal/notify"
	"github.com/clinicdesk/clinic-secretary/internal/patients"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

const apologyResponse = "I'm sorry, something went wrong on our side. Please try again in a moment or call the clinic directly."

// PatientDirectory is the patient lookup surface the engine needs.
type PatientDirectory interface {
	UpsertByPhone(ctx context.Context, name, phone, email string) (*patients.Patient, error)
	GetByPhone(ctx context.Context, phone string) (*patients.Patient, error)
}

// DoctorDirectory resolves doctors for bookings.
type DoctorDirectory interface {
	GetBySpecialty(ctx context.Context, specialty string) (*doctors.Doctor, error)
	First(ctx context.Context) (*doctors.Doctor, error)
}

// AppointmentBook is the appointment persistence surface the engine needs.
type AppointmentBook interface {
	Create(ctx context.Context, req appointments.CreateRequest) (*appointments.Appointment, error)
	ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID) ([]appointments.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status appointments.Status) (*appointments.Appointment, error)
}

// EventCalendar mirrors the clinic calendar. It may be not Ready, in which
// case bookings proceed without an event.
type EventCalendar interface {
	Ready() bool
	CreateEvent(ctx context.Context, in calendar.EventInput) (*calendar.Event, error)
}

// Notifier dispatches confirmations and cancellation notices. Optional.
type Notifier interface {
	SendConfirmation(ctx context.Context, to string, det notify.Details) notify.Result
	SendCancellation(ctx context.Context, to string, det notify.Details) notify.Result
}

// EngineConfig wires the engine's dependencies.
type EngineConfig struct {
	Patients     PatientDirectory
	Doctors      DoctorDirectory
	Appointments AppointmentBook
	Calendar     EventCalendar
	Notifier     Notifier
	Info         *clinicinfo.Info
	Clock        func() time.Time
	Logger       *logging.Logger
}

// Engine runs one dialog turn at a time: classify, extract, collect, and
// finally book or answer.
type Engine struct {
	patients     PatientDirectory
	doctors      DoctorDirectory
	appointments AppointmentBook
	calendar     EventCalendar
	notifier     Notifier
	info         *clinicinfo.Info
	clock        func() time.Time
	logger       *logging.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Engine{
		patients:     cfg.Patients,
		doctors:      cfg.Doctors,
		appointments: cfg.Appointments,
		calendar:     cfg.Calendar,
		notifier:     cfg.Notifier,
		info:         cfg.Info,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
	}
}

// Result is the outcome of one dialog turn.
type Result struct {
	Response        string `json:"response"`
	State           *State `json:"conversation_state"`
	Intent          Intent `json:"intent"`
	Status          Status `json:"status"`
	AppointmentID   string `json:"appointment_id,omitempty"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
	// CalendarWarning is set when the appointment was saved but the
	// calendar event could not be created.
	CalendarWarning bool `json:"calendar_warning,omitempty"`
}

// ProcessMessage runs one turn. Provider and storage failures never escape
// as errors: the user gets an apology and the result carries status error.
func (e *Engine) ProcessMessage(ctx context.Context, message string, st *State) *Result {
	if st == nil {
		st = NewState()
	}
	if st.Collected == nil {
		st.Collected = map[string]string{}
	}
	st.AddMessage(RoleUser, message)

	intent := Classify(message)
	// A flow in progress swallows weak intents so that slot answers like
	// "tomorrow afternoon" or a bare phone number don't derail the
	// collection.
	if st.Status == StatusCollecting && !interrupts(intent) {
		switch {
		case st.Intent == IntentSchedule:
			intent = IntentSchedule
		case st.Modifying:
			intent = IntentModify
		case st.Intent == IntentCheck:
			intent = IntentCheck
		}
	}
	st.Intent = intent
	st.LastUpdated = e.clock()

	result := e.dispatch(ctx, intent, message, st)
	result.State = st
	result.Intent = intent
	st.Status = result.Status
	st.AddMessage(RoleAssistant, result.Response)
	return result
}

func interrupts(intent Intent) bool {
	switch intent {
	case IntentEmergency, IntentPersonal, IntentModify, IntentCheck:
		return true
	}
	return false
}

func (e *Engine) dispatch(ctx context.Context, intent Intent, message string, st *State) *Result {
	switch intent {
	case IntentEmergency:
		return e.handleEmergency()
	case IntentPersonal:
		return e.handlePersonal(ctx, st)
	case IntentModify:
		return e.handleModify(ctx, message, st)
	case IntentCheck:
		return e.handleCheck(ctx, message, st)
	case IntentSchedule:
		return e.handleSchedule(ctx, message, st)
	case IntentInformation:
		return e.handleInformation(message)
	default:
		return e.handleGeneral(st)
	}
}

func (e *Engine) handleEmergency() *Result {
	response := "If this is a medical emergency, please call 911 immediately."
	if e.info != nil {
		response += fmt.Sprintf(" You can also reach our emergency line at %s.", e.info.EmergencyContact())
	}
	return &Result{Response: response, Status: StatusCompleted}
}

func (e *Engine) handlePersonal(ctx context.Context, st *State) *Result {
	phone := e.knownPhone(st)
	if phone == "" {
		return &Result{
			Response: "I don't have your details yet. Could you share the phone number you registered with?",
			Status:   StatusCompleted,
		}
	}
	patient, err := e.patients.GetByPhone(ctx, phone)
	if errors.Is(err, patients.ErrNotFound) {
		return &Result{
			Response: "I couldn't find a record for that number. Would you like to register by booking an appointment?",
			Status:   StatusCompleted,
		}
	}
	if err != nil {
		e.logger.Error("personal question lookup failed", "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	st.Collected[SlotName] = patient.Name
	st.Collected[SlotPhone] = patient.Phone
	return &Result{
		Response: fmt.Sprintf("Yes, %s! I have your record on file under %s. How can I help you today?", patient.Name, patient.Phone),
		Status:   StatusCompleted,
	}
}

func (e *Engine) handleCheck(ctx context.Context, message string, st *State) *Result {
	e.mergeIdentity(message, st)
	phone := e.knownPhone(st)
	if phone == "" {
		st.Required = []string{SlotName, SlotPhone}
		return &Result{
			Response: "I can look that up. What phone number did you book with?",
			Status:   StatusCollecting,
		}
	}
	patient, err := e.patients.GetByPhone(ctx, phone)
	if errors.Is(err, patients.ErrNotFound) {
		return &Result{
			Response: "I couldn't find any appointments under that number. Would you like to book one?",
			Status:   StatusCompleted,
		}
	}
	if err != nil {
		e.logger.Error("appointment check lookup failed", "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	upcoming, err := e.appointments.ListUpcomingForPatient(ctx, patient.ID)
	if err != nil {
		e.logger.Error("appointment check list failed", "patient_id", patient.ID, "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	if len(upcoming) == 0 {
		return &Result{
			Response: fmt.Sprintf("%s, you have no upcoming appointments. Would you like to book one?", patient.Name),
			Status:   StatusCompleted,
		}
	}
	var lines []string
	for _, appt := range upcoming {
		lines = append(lines, fmt.Sprintf("%s on %s at %s",
			appt.Type, appt.ScheduledAt.Format("Monday, January 2"), appt.ScheduledAt.Format("03:04 PM")))
	}
	return &Result{
		Response: fmt.Sprintf("%s, here are your upcoming appointments: %s.", patient.Name, strings.Join(lines, "; ")),
		Status:   StatusCompleted,
	}
}

func (e *Engine) handleModify(ctx context.Context, message string, st *State) *Result {
	e.mergeIdentity(message, st)
	phone := e.knownPhone(st)
	if phone == "" {
		st.Required = []string{SlotName, SlotPhone}
		st.Modifying = true
		return &Result{
			Response: "I can help with that. What phone number did you book with?",
			Status:   StatusCollecting,
		}
	}
	st.Modifying = false
	patient, err := e.patients.GetByPhone(ctx, phone)
	if errors.Is(err, patients.ErrNotFound) {
		return &Result{
			Response: "I couldn't find any appointments under that number.",
			Status:   StatusCompleted,
		}
	}
	if err != nil {
		e.logger.Error("modify lookup failed", "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	upcoming, err := e.appointments.ListUpcomingForPatient(ctx, patient.ID)
	if err != nil {
		e.logger.Error("modify list failed", "patient_id", patient.ID, "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	if len(upcoming) == 0 {
		return &Result{
			Response: fmt.Sprintf("%s, you have no upcoming appointments to change.", patient.Name),
			Status:   StatusCompleted,
		}
	}
	next := upcoming[0]
	cancelled, err := e.appointments.UpdateStatus(ctx, next.ID, appointments.StatusCancelled)
	if err != nil {
		e.logger.Error("cancel failed", "appointment_id", next.ID, "error", err)
		return &Result{Response: apologyResponse, Status: StatusError}
	}
	if e.notifier != nil {
		e.notifier.SendCancellation(ctx, patient.Phone, notify.Details{
			PatientName:     patient.Name,
			AppointmentType: cancelled.Type,
			When:            cancelled.ScheduledAt,
		})
	}
	return &Result{
		Response: fmt.Sprintf("Done, %s. Your %s on %s at %s has been cancelled. Would you like to book a new time?",
			patient.Name, cancelled.Type, cancelled.ScheduledAt.Format("Monday, January 2"), cancelled.ScheduledAt.Format("03:04 PM")),
		Status:        StatusCompleted,
		AppointmentID: cancelled.ID.String(),
	}
}

func (e *Engine) handleInformation(message string) *Result {
	if e.info == nil {
		return &Result{Response: "Please call the clinic for that information.", Status: StatusCompleted}
	}
	return &Result{Response: e.info.Answer(message), Status: StatusCompleted}
}

func (e *Engine) handleGeneral(st *State) *Result {
	greeting := "Hello"
	if name := st.Collected[SlotName]; name != "" {
		greeting = "Hello, " + firstName(name)
	}
	clinicName := "the clinic"
	if e.info != nil {
		clinicName = e.info.ClinicName
	}
	return &Result{
		Response: fmt.Sprintf("%s! I'm the virtual secretary at %s. I can book appointments, check your schedule, or answer questions about the clinic. How can I help?", greeting, clinicName),
		Status:   StatusCompleted,
	}
}

// mergeIdentity pulls name and phone out of the current message so that a
// follow-up like "my number is 555-0101" resolves a lookup flow. Other slots
// are left alone to avoid polluting a later scheduling collection.
func (e *Engine) mergeIdentity(message string, st *State) {
	extracted := ExtractSchedulingInfo(message, e.clock())
	st.Merge(map[string]string{
		SlotName:  extracted[SlotName],
		SlotPhone: extracted[SlotPhone],
	})
}

// knownPhone prefers an explicitly collected phone, falling back to the
// channel id, which for WhatsApp is the sender's number.
func (e *Engine) knownPhone(st *State) string {
	if phone := st.Collected[SlotPhone]; phone != "" {
		return phone
	}
	if st.ChannelType == "whatsapp" {
		return st.ChannelID
	}
	return ""
}

func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}
