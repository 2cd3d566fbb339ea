package model

const (
	MonthsPerPlan = 3
	WeeksPerMonth = 4
)

type WeeklyGoal struct {
	Text string `json:"text"`
}

type MonthlyGoal struct {
	Text  string                    `json:"text"`
	Weeks [WeeksPerMonth]WeeklyGoal `json:"weeks"`
}

type ThreeMonthGoal struct {
	Text      string     `json:"text"`
	StartDate *Timestamp `json:"startDate,omitempty"`
	EndDate   *Timestamp `json:"endDate,omitempty"`
}

// FixedGoals is the quarter -> month -> week plan. Its shape never changes.
type FixedGoals struct {
	ThreeMonth ThreeMonthGoal `json:"threeMonth"`
	Month1     MonthlyGoal    `json:"month1"`
	Month2     MonthlyGoal    `json:"month2"`
	Month3     MonthlyGoal    `json:"month3"`
}

// Month returns the 1-based month slot, or nil when out of range.
func (g *FixedGoals) Month(n int) *MonthlyGoal {
	switch n {
	case 1:
		return &g.Month1
	case 2:
		return &g.Month2
	case 3:
		return &g.Month3
	}
	return nil
}
