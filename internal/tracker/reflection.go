package tracker

import (
	"errors"
	"strconv"
	"strings"

	"github.com/templui/tasktracker/internal/model"
)

const (
	MinRating = 1
	MaxRating = 10
)

// UpdateReflection stores insight/challenge text verbatim. Rating is parsed
// from a numeric string; blank input clears it rather than storing zero.
func (w *Workspace) UpdateReflection(date string, field model.ReflectionField, value string) (*model.DailyLog, error) {
	var rating *int
	if field == model.ReflectionRating {
		parsed, err := parseRating(value)
		if err != nil {
			return nil, invalid("rating", err)
		}
		rating = parsed
	}

	log, err := w.GetOrCreate(date)
	if err != nil {
		return nil, err
	}

	switch field {
	case model.ReflectionInsight:
		log.Insight = value
	case model.ReflectionChallenge:
		log.Challenge = value
	case model.ReflectionRating:
		log.Rating = rating
	default:
		return nil, invalid("field", errors.New("must be insight, challenge or rating"))
	}
	return log, nil
}

func parseRating(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.New("rating must be a whole number")
	}
	if n < MinRating || n > MaxRating {
		return nil, errors.New("rating must be between 1 and 10")
	}
	return &n, nil
}
