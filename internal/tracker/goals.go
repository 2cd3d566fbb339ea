package tracker

import (
	"errors"
	"time"

	"github.com/templui/tasktracker/internal/model"
	"github.com/templui/tasktracker/internal/validation"
)

func (w *Workspace) Goals() *model.FixedGoals {
	return &w.snap.FixedGoals
}

func (w *Workspace) SetThreeMonth(text string) error {
	err := validation.ValidateGoalText(text)
	if err != nil {
		return invalid("text", err)
	}
	w.snap.FixedGoals.ThreeMonth.Text = text
	return nil
}

func (w *Workspace) SetThreeMonthDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalid("endDate", errors.New("end date is before start date"))
	}
	w.snap.FixedGoals.ThreeMonth.StartDate = optionalTimestamp(start)
	w.snap.FixedGoals.ThreeMonth.EndDate = optionalTimestamp(end)
	return nil
}

// SetMonth replaces the text of month 1..3.
func (w *Workspace) SetMonth(month int, text string) error {
	m, err := w.month(month)
	if err != nil {
		return err
	}
	err = validation.ValidateGoalText(text)
	if err != nil {
		return invalid("text", err)
	}
	m.Text = text
	return nil
}

// SetWeek replaces the text of week 1..4 within month 1..3.
func (w *Workspace) SetWeek(month, week int, text string) error {
	m, err := w.month(month)
	if err != nil {
		return err
	}
	if week < 1 || week > model.WeeksPerMonth {
		return invalid("week", errors.New("week must be between 1 and 4"))
	}
	err = validation.ValidateGoalText(text)
	if err != nil {
		return invalid("text", err)
	}
	m.Weeks[week-1].Text = text
	return nil
}

func (w *Workspace) month(n int) (*model.MonthlyGoal, error) {
	m := w.snap.FixedGoals.Month(n)
	if m == nil {
		return nil, invalid("month", errors.New("month must be between 1 and 3"))
	}
	return m, nil
}
