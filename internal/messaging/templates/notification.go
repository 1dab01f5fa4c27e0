package templates

// Built-in notification message templates. Rendered with strict missing-key
// semantics so a malformed data map fails loudly instead of sending a
// half-filled message.
const (
	AppointmentConfirmation = "Hello {{.PatientName}}! Your {{.AppointmentType}} appointment with {{.DoctorName}} is confirmed for {{.Date}} at {{.Time}}. See you at the clinic!"

	AppointmentReminder = "Hello {{.PatientName}}! This is a reminder of your appointment with {{.DoctorName}} on {{.Date}} at {{.Time}}. Reply here if you need to reschedule."

	AppointmentCancellation = "Hello {{.PatientName}}, your appointment with {{.DoctorName}} on {{.Date}} at {{.Time}} has been cancelled. Contact us to book a new one."

	AppointmentReschedule = "Hello {{.PatientName}}, your appointment with {{.DoctorName}} has been moved to {{.NewDate}} at {{.NewTime}}. Reply here if that does not work for you."
)
