package domain

import (
	"fmt"
	"strings"
	"time"
)

const medicineDateLayout = "2006-01-02"

type Medicine struct {
	ID             int64  `json:"id,omitempty"`
	Name           string `json:"name"`
	Dosage         string `json:"dosage"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

func (m Medicine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: medicine name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return fmt.Errorf("%w: medicine dosage is required", ErrInvalidInput)
	}
	if m.ExpirationDate != "" {
		if _, err := time.Parse(medicineDateLayout, m.ExpirationDate); err != nil {
			return fmt.Errorf("%w: expiration date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	return nil
}

// Expired reports whether the medicine expired before now. Medicines without a date never expire.
func (m Medicine) Expired(now time.Time) bool {
	if m.ExpirationDate == "" {
		return false
	}
	expiresAt, err := time.Parse(medicineDateLayout, m.ExpirationDate)
	if err != nil {
		return false
	}
	return expiresAt.Before(now.Truncate(24 * time.Hour))
}
