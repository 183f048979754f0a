package contact

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^[0-9]{7,15}$`)

// Record is one staged row of an uploaded file. It has no identity of its
// own until applied; the natural key used for duplicate detection is the
// normalized email, scoped to the owning account.
type Record struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	AccountID string `json:"account_id"`
	JobID     string `json:"job_id,omitempty"`
}

// Key returns the record's natural key.
func (r Record) Key() string {
	return NormalizeKey(r.Email)
}

func NormalizeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the record's identity fields and returns a human-readable
// rejection reason when they fail format rules.
func (r Record) Validate() error {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, r.Email)
	}
	if !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, r.Phone)
	}
	return nil
}
