package validation

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// ValidateDate checks an ISO calendar date (YYYY-MM-DD) that is not after today.
// Both values are compared as calendar strings, so no time zone math is involved.
func ValidateDate(date, today string) error {
	if date == "" {
		return errors.New("date is required")
	}

	_, err := time.Parse(dateLayout, date)
	if err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}

	if date > today {
		return errors.New("future dates cannot be viewed")
	}

	return nil
}
