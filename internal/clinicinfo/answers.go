package clinicinfo

import (
	"fmt"
	"strings"
)

// Topic labels the kind of clinic information a message is asking about.
type Topic string

const (
	TopicAddress    Topic = "address"
	TopicContact    Topic = "contact"
	TopicHours      Topic = "hours"
	TopicServices   Topic = "services"
	TopicDoctors    Topic = "doctors"
	TopicInsurance  Topic = "insurance"
	TopicPolicies   Topic = "policies"
	TopicCovid      Topic = "covid"
	TopicFacilities Topic = "facilities"
	TopicGeneral    Topic = "general"
)

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicAddress, []string{"address", "location", "where are you", "where is the clinic", "directions", "how do i get"}},
	{TopicContact, []string{"phone number", "telephone", "email", "website", "contact", "call you", "reach you"}},
	{TopicHours, []string{"hours", "open", "close", "closing", "opening", "what time"}},
	{TopicDoctors, []string{"doctor", "doctors", "physician", "specialist", "who treats", "specialt"}},
	{TopicInsurance, []string{"insurance", "coverage", "covered", "plan", "accept"}},
	{TopicPolicies, []string{"policy", "policies", "cancellation", "cancel fee", "late", "payment", "refill", "new patient"}},
	{TopicCovid, []string{"covid", "coronavirus", "vaccine", "vaccination", "mask", "testing"}},
	{TopicFacilities, []string{"parking", "pharmacy", "wheelchair", "facilities", "accessible", "lab"}},
	{TopicServices, []string{"service", "services", "offer", "provide", "do you do", "treatment"}},
}

// DetectTopic picks the information topic of a message by ordered keyword
// matching, defaulting to general.
func DetectTopic(message string) Topic {
	msg := strings.ToLower(message)
	for _, rule := range topicKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.topic
			}
		}
	}
	return TopicGeneral
}

// Answer builds a conversational reply to an information question. The topic
// is detected from the message; day names, specialty names, plan names and
// policy keys mentioned in the message narrow the answer.
func (i *Info) Answer(message string) string {
	msg := strings.ToLower(message)
	switch DetectTopic(message) {
	case TopicAddress:
		return fmt.Sprintf("%s is located at %s.", i.ClinicName, i.FullAddress())
	case TopicContact:
		return fmt.Sprintf("You can reach %s by phone at %s or by email at %s.",
			i.ClinicName, i.Phone(), i.Contact["email"])
	case TopicHours:
		return i.hoursAnswer(msg)
	case TopicDoctors:
		return i.doctorsAnswer(msg)
	case TopicInsurance:
		return i.insuranceAnswer(msg)
	case TopicPolicies:
		return i.policiesAnswer(msg)
	case TopicCovid:
		return i.covidAnswer()
	case TopicFacilities:
		return fmt.Sprintf("Our facilities include: %s.", strings.Join(i.Facilities, ", "))
	case TopicServices:
		return fmt.Sprintf("We offer the following services: %s.", strings.Join(i.Services, ", "))
	default:
		return i.Summary()
	}
}

func (i *Info) hoursAnswer(msg string) string {
	for alias, canonical := range dayAliases {
		if alias != canonical {
			continue
		}
		if strings.Contains(msg, alias) {
			if hours, ok := i.Hours[canonical]; ok {
				if strings.EqualFold(hours, "closed") {
					return fmt.Sprintf("We are closed on %s.", titleDay(canonical))
				}
				return fmt.Sprintf("On %s we are open %s.", titleDay(canonical), hours)
			}
		}
	}
	var lines []string
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if hours, ok := i.Hours[day]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", titleDay(day), hours))
		}
	}
	return "Our opening hours are: " + strings.Join(lines, "; ") + "."
}

func titleDay(day string) string {
	if day == "" {
		return day
	}
	return strings.ToUpper(day[:1]) + day[1:]
}

func (i *Info) doctorsAnswer(msg string) string {
	for _, s := range i.Specialties {
		if strings.Contains(msg, strings.ToLower(s.Name)) {
			return fmt.Sprintf("Our %s team (%s): %s.", s.Name, s.Description, strings.Join(s.Doctors, ", "))
		}
	}
	var parts []string
	for _, s := range i.Specialties {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, strings.Join(s.Doctors, ", ")))
	}
	return "Our specialties and doctors: " + strings.Join(parts, "; ") + "."
}

func (i *Info) insuranceAnswer(msg string) string {
	for _, plan := range i.InsurancePlans {
		if strings.Contains(msg, strings.ToLower(plan)) {
			return fmt.Sprintf("Yes, we accept %s.", plan)
		}
	}
	return fmt.Sprintf("We accept the following insurance plans: %s. If your plan is not listed, call us at %s to check.",
		strings.Join(i.InsurancePlans, ", "), i.Phone())
}

func (i *Info) policiesAnswer(msg string) string {
	for key, text := range i.Policies {
		if strings.Contains(msg, strings.ReplaceAll(key, "_", " ")) || strings.Contains(msg, key) {
			return text
		}
	}
	var lines []string
	for _, key := range []string{"cancellation", "late_arrival", "payment", "new_patients", "prescription_refills"} {
		if text, ok := i.Policies[key]; ok {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		for _, text := range i.Policies {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

func (i *Info) covidAnswer() string {
	var parts []string
	if i.Covid.VaccinationAvailable {
		parts = append(parts, "COVID-19 vaccination is available")
	}
	if i.Covid.TestingAvailable {
		parts = append(parts, "COVID-19 testing is available")
	}
	if len(parts) == 0 {
		parts = append(parts, "Please call us for current COVID-19 services")
	}
	answer := strings.Join(parts, " and ") + "."
	if len(i.Covid.SafetyMeasures) > 0 {
		answer += " Safety measures: " + strings.Join(i.Covid.SafetyMeasures, ", ") + "."
	}
	return answer
}
