// Package conversation implements the chat front desk: intent
// classification, slot extraction and the dialog engine that books
// appointments and answers clinic questions.
package conversation

import "time"

// Role tags who produced a message in the log.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Status describes where a conversation turn left the dialog.
type Status string

const (
	// StatusCollecting means the engine is still gathering booking slots.
	StatusCollecting Status = "collecting_info"
	// StatusCompleted means the turn finished its work (a booking, an
	// answer, a greeting).
	StatusCompleted Status = "completed"
	// StatusError means the turn failed and the user got an apology.
	StatusError Status = "error"
)

// Slot names collected by the scheduling flow.
const (
	SlotName      = "patient_name"
	SlotPhone     = "patient_phone"
	SlotDate      = "date"
	SlotTime      = "time"
	SlotSpecialty = "doctor_specialty"
	SlotType      = "appointment_type"
	SlotDatetime  = "datetime"
)

// requiredSlots is what a booking needs, in prompt-priority order.
var requiredSlots = []string{SlotName, SlotPhone, SlotDate, SlotTime, SlotSpecialty, SlotType}

// State is the per-channel dialog state. It round-trips through redis as a
// JSON blob and may also be passed inline by HTTP callers.
type State struct {
	Messages    []Message         `json:"messages"`
	Intent      Intent            `json:"intent,omitempty"`
	Collected   map[string]string `json:"collected_params"`
	Required    []string          `json:"required_params"`
	// Awaiting is the slot the last prompt asked for, so a bare reply
	// like "Maria Silva" can be taken as its answer.
	Awaiting    string `json:"awaiting_slot,omitempty"`
	Status      Status `json:"status,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelType string `json:"channel_type,omitempty"`
	// Modifying marks a change/cancel flow waiting on the caller's phone
	// number, so the follow-up turn routes back to it.
	Modifying   bool      `json:"appointment_modification,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

// NewState returns an empty dialog state.
func NewState() *State {
	return &State{
		Collected: map[string]string{},
		Required:  []string{},
	}
}

// AddMessage appends to the conversation log.
func (s *State) AddMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Missing returns the required slots not yet collected, in priority order.
func (s *State) Missing() []string {
	var missing []string
	for _, slot := range s.Required {
		if s.Collected[slot] == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// Merge copies extracted slots into the collected map. Existing values are
// overwritten; merging the same extraction twice is a no-op.
func (s *State) Merge(extracted map[string]string) {
	if s.Collected == nil {
		s.Collected = map[string]string{}
	}
	for k, v := range extracted {
		if v != "" {
			s.Collected[k] = v
		}
	}
}
