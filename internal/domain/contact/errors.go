package contact

import "errors"

var (
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrInvalidPhone          = errors.New("invalid phone format")
	ErrJobNotFound           = errors.New("job not found")
	ErrErrorLogEntryNotFound = errors.New("error log entry not found")
)
