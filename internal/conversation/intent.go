package conversation

import "strings"

// Intent is the routing label for an inbound message.
type Intent string

const (
	IntentEmergency   Intent = "emergency"
	IntentPersonal    Intent = "personal_question"
	IntentModify      Intent = "modify_appointment"
	IntentCheck       Intent = "check_appointment"
	IntentSchedule    Intent = "schedule_appointment"
	IntentInformation Intent = "get_information"
	IntentGeneral     Intent = "general_conversation"
)

// intentRules are evaluated top to bottom; the first rule with a keyword
// contained in the message wins. Emergencies outrank everything.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentEmergency, []string{
		"emergency", "urgent", "911", "chest pain", "heart attack",
		"can't breathe", "cannot breathe", "bleeding", "unconscious", "severe pain",
	}},
	{IntentPersonal, []string{
		"do you know me", "do you know my", "remember me", "who am i",
		"my information", "my record", "my details", "my file",
	}},
	{IntentModify, []string{
		"cancel", "reschedule", "change my appointment", "modify", "postpone", "move my appointment",
	}},
	{IntentCheck, []string{
		"my appointment", "my appointments", "check on my", "when is my",
		"do i have an appointment", "view my", "upcoming appointment",
	}},
	{IntentSchedule, []string{
		"schedule", "book", "appointment", "set up a visit", "reserve", "see a doctor", "see the doctor",
	}},
	{IntentInformation, []string{
		"information", "info", "details", "hours", "address", "location",
		"where are you", "phone number", "contact", "insurance", "services",
		"policies", "policy", "specialties", "parking",
	}},
}

// Classify maps a message to an intent by ordered keyword matching. Messages
// matching nothing are general conversation.
func Classify(message string) Intent {
	msg := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}
