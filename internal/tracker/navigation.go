package tracker

import (
	"fmt"
	"time"

	"github.com/templui/tasktracker/internal/model"
)

type Direction string

const (
	DirectionPrev  Direction = "prev"
	DirectionNext  Direction = "next"
	DirectionToday Direction = "today"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionPrev, DirectionNext, DirectionToday:
		return Direction(s), nil
	}
	return "", invalid("direction", fmt.Errorf("unknown direction %q", s))
}

// ViewingDate is the persisted viewing date, or today when it is missing,
// malformed, or ahead of the current date.
func (w *Workspace) ViewingDate() string {
	today := w.Today()
	date := w.snap.ViewingDate
	_, err := time.Parse(model.DateLayout, date)
	if err != nil || date > today {
		return today
	}
	return date
}

// Navigate moves the viewing date by one day. Moving past today is a no-op.
// Returns whether the viewing date changed.
func (w *Workspace) Navigate(dir Direction) bool {
	today := w.Today()
	current := w.ViewingDate()

	next := current
	switch dir {
	case DirectionPrev:
		next = shiftDate(current, -1)
	case DirectionNext:
		if current < today {
			next = shiftDate(current, 1)
		}
	case DirectionToday:
		next = today
	}

	w.snap.ViewingDate = next
	return next != current
}

func shiftDate(date string, days int) string {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, days).Format(model.DateLayout)
}
