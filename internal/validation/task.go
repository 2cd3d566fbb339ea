package validation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTaskTitleLength       = 200
	MaxTaskDescriptionLength = 2000
	MaxGoalTextLength        = 5000
)

// ValidateTaskTitle validates an already trimmed task title
func ValidateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(title) > MaxTaskTitleLength {
		return errors.New("title is too long (max 200 characters)")
	}

	return nil
}

func ValidateTaskDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxTaskDescriptionLength {
		return errors.New("description is too long (max 2000 characters)")
	}
	return nil
}

// ValidatePlannedWindow rejects a planned end that precedes the planned start.
// Either bound may be absent.
func ValidatePlannedWindow(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(*start) {
		return errors.New("planned end is before planned start")
	}
	return nil
}

func ValidateGoalText(text string) error {
	if utf8.RuneCountInString(text) > MaxGoalTextLength {
		return errors.New("goal text is too long (max 5000 characters)")
	}
	return nil
}
