// Package clinicinfo holds the clinic's static knowledge document: identity,
// hours, services, specialties, insurance, facilities and policies. The
// document is loaded once at startup and never mutated afterwards.
package clinicinfo

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/clinic_info.json
var defaultDocument []byte

// Address is the clinic's street address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Specialty is a medical specialty offered by the clinic and the doctors
// practicing it.
type Specialty struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Doctors     []string `json:"doctors"`
}

// CovidInfo describes the clinic's COVID-19 services and safety measures.
type CovidInfo struct {
	VaccinationAvailable bool     `json:"vaccination_available"`
	TestingAvailable     bool     `json:"testing_available"`
	SafetyMeasures       []string `json:"safety_measures"`
}

// Info is the full clinic document.
type Info struct {
	ClinicName     string            `json:"clinic_name"`
	Address        Address           `json:"address"`
	Contact        map[string]string `json:"contact"`
	Hours          map[string]string `json:"hours"`
	Services       []string          `json:"services"`
	Specialties    []Specialty       `json:"specialties"`
	InsurancePlans []string          `json:"insurance_plans"`
	Facilities     []string          `json:"facilities"`
	Policies       map[string]string `json:"policies"`
	Covid          CovidInfo         `json:"covid_19"`
}

// Load returns the clinic document. When path is empty the embedded default
// is used, otherwise the file at path is read and parsed.
func Load(path string) (*Info, error) {
	data := defaultDocument
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("clinicinfo: read %s: %w", path, err)
		}
		data = b
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("clinicinfo: parse document: %w", err)
	}
	return &info, nil
}

// FullAddress renders the address as a single line.
func (i *Info) FullAddress() string {
	a := i.Address
	return fmt.Sprintf("%s, %s, %s %s, %s", a.Street, a.City, a.State, a.ZipCode, a.Country)
}

// Phone returns the clinic's main phone number.
func (i *Info) Phone() string {
	return i.Contact["phone"]
}

// EmergencyContact returns the after-hours emergency number, falling back to
// the main phone when none is configured.
func (i *Info) EmergencyContact() string {
	if v := i.Contact["emergency"]; v != "" {
		return v
	}
	return i.Phone()
}

var dayAliases = map[string]string{
	"mon": "monday", "monday": "monday",
	"tue": "tuesday", "tues": "tuesday", "tuesday": "tuesday",
	"wed": "wednesday", "wednesday": "wednesday",
	"thu": "thursday", "thur": "thursday", "thurs": "thursday", "thursday": "thursday",
	"fri": "friday", "friday": "friday",
	"sat": "saturday", "saturday": "saturday",
	"sun": "sunday", "sunday": "sunday",
}

// HoursFor returns the opening hours for a day name or common abbreviation.
func (i *Info) HoursFor(day string) (string, bool) {
	canonical, ok := dayAliases[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return "", false
	}
	hours, ok := i.Hours[canonical]
	return hours, ok
}

// SpecialtyByName finds a specialty by case-insensitive name.
func (i *Info) SpecialtyByName(name string) (Specialty, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range i.Specialties {
		if strings.ToLower(s.Name) == name {
			return s, true
		}
	}
	return Specialty{}, false
}

// DoctorsBySpecialty returns the doctors for a specialty, nil when unknown.
func (i *Info) DoctorsBySpecialty(name string) []string {
	s, ok := i.SpecialtyByName(name)
	if !ok {
		return nil
	}
	return s.Doctors
}

// AllDoctors returns every doctor across specialties, deduplicated, in
// first-seen order.
func (i *Info) AllDoctors() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range i.Specialties {
		for _, d := range s.Doctors {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// InsuranceAccepted reports whether a plan is accepted. Matching is
// case-insensitive and tolerates partial names in either direction.
func (i *Info) InsuranceAccepted(plan string) bool {
	plan = strings.ToLower(strings.TrimSpace(plan))
	if plan == "" {
		return false
	}
	for _, p := range i.InsurancePlans {
		lp := strings.ToLower(p)
		if strings.Contains(lp, plan) || strings.Contains(plan, lp) {
			return true
		}
	}
	return false
}

// Policy returns a policy text by key.
func (i *Info) Policy(name string) (string, bool) {
	v, ok := i.Policies[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// Summary renders a one-paragraph overview of the clinic.
func (i *Info) Summary() string {
	return fmt.Sprintf("%s is located at %s. We offer %d services across %d specialties with %d doctors. Call us at %s.",
		i.ClinicName, i.FullAddress(), len(i.Services), len(i.Specialties), len(i.AllDoctors()), i.Phone())
}

// SearchResult is one hit from a document search.
type SearchResult struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// Search does a case-insensitive substring scan over services, specialties,
// insurance plans and facilities.
func (i *Info) Search(query string) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var results []SearchResult
	for _, s := range i.Services {
		if strings.Contains(strings.ToLower(s), query) {
			results = append(results, SearchResult{Type: "service", Content: s, Category: "services"})
		}
	}
	for _, sp := range i.Specialties {
		if strings.Contains(strings.ToLower(sp.Name), query) || strings.Contains(strings.ToLower(sp.Description), query) {
			results = append(results, SearchResult{
				Type:     "specialty",
				Content:  fmt.Sprintf("%s: %s", sp.Name, sp.Description),
				Category: "specialties",
			})
		}
	}
	for _, p := range i.InsurancePlans {
		if strings.Contains(strings.ToLower(p), query) {
			results = append(results, SearchResult{Type: "insurance", Content: p, Category: "insurance_plans"})
		}
	}
	for _, f := range i.Facilities {
		if strings.Contains(strings.ToLower(f), query) {
			results = append(results, SearchResult{Type: "facility", Content: f, Category: "facilities"})
		}
	}
	return results
}
