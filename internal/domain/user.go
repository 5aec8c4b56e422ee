package domain

import (
	"encoding/json"
	"strings"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	default:
		return "", false
	}
}

type Allergy struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Severity *Severity `json:"severity"`
	Notes    *string   `json:"notes"`
}

// User is the profile returned by the identity service. Fields the client
// does not read are kept in Extra so a round trip does not lose them.
type User struct {
	Username  string                     `json:"username"`
	Email     string                     `json:"email"`
	Allergies []Allergy                  `json:"allergies,omitempty"`
	Extra     map[string]json.RawMessage `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	delete(fields, "username")
	delete(fields, "email")
	delete(fields, "allergies")
	if len(fields) > 0 {
		decoded.Extra = fields
	}

	*u = User(decoded)
	return nil
}

// HasAllergy reports whether the profile lists an allergy with the given name, ignoring case.
func (u User) HasAllergy(name string) bool {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false
	}
	for _, allergy := range u.Allergies {
		if strings.ToLower(strings.TrimSpace(allergy.Name)) == needle {
			return true
		}
	}
	return false
}

// WithAllergy returns a copy of the allergy list with allergy added or replaced by ID.
func WithAllergy(allergies []Allergy, allergy Allergy) []Allergy {
	result := make([]Allergy, 0, len(allergies)+1)
	replaced := false
	for _, existing := range allergies {
		if existing.ID == allergy.ID {
			result = append(result, allergy)
			replaced = true
			continue
		}
		result = append(result, existing)
	}
	if !replaced {
		result = append(result, allergy)
	}
	return result
}

// WithoutAllergy returns a copy of the allergy list without the allergy with the given ID.
func WithoutAllergy(allergies []Allergy, id string) ([]Allergy, bool) {
	result := make([]Allergy, 0, len(allergies))
	removed := false
	for _, existing := range allergies {
		if existing.ID == id {
			removed = true
			continue
		}
		result = append(result, existing)
	}
	return result, removed
}
