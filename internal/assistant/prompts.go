package assistant

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/templui/tasktracker/internal/model"
)

const (
	coachFraming   = "You are an AI productivity coach. Help analyze tasks and achieve goals. "
	analysisWindow = 30 * 24 * time.Hour
)

var analysisKeywords = []string{"analysis", "analyze", "progress", "анализ", "прогресс"}

// DaySummaryPrompt asks for a short summary of one day's log.
func DaySummaryPrompt(log *model.DailyLog, language string) string {
	completed, incomplete := log.Split()

	var b strings.Builder
	b.WriteString("Create a short summary of the day based on the following data:\n\n")
	fmt.Fprintf(&b, "Date: %s\n", log.Date)
	fmt.Fprintf(&b, "Completed tasks: %s\n", taskList(completed))
	fmt.Fprintf(&b, "Incomplete tasks: %s\n", taskList(incomplete))
	fmt.Fprintf(&b, "Plans for tomorrow: %s\n", taskList(log.TasksForTomorrow))
	fmt.Fprintf(&b, "Insight of the day: %s\n", orNone(log.Insight))
	fmt.Fprintf(&b, "Challenges of the day: %s\n", orNone(log.Challenge))
	fmt.Fprintf(&b, "Day rating: %s\n\n", rating(log.Rating))
	fmt.Fprintf(&b, "Write a short summary (2-3 paragraphs) in %s, highlighting key achievements, problems and insights.", language)
	return b.String()
}

// IsAnalysisRequest reports whether the chat text asks for a progress review.
func IsAnalysisRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range analysisKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AnalysisPrompt appends the trailing 30 days of logs, counted back from now,
// and the whole goal plan to the user's text.
func AnalysisPrompt(text string, logs map[string]*model.DailyLog, goals model.FixedGoals, now time.Time) string {
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nData for the last 30 days:\n")

	for _, log := range recentLogs(logs, now) {
		completed, incomplete := log.Split()
		fmt.Fprintf(&b, "\nDate: %s\n", log.Date)
		fmt.Fprintf(&b, "Completed: %d tasks\n", len(completed))
		fmt.Fprintf(&b, "Not completed: %d tasks\n", len(incomplete))
		fmt.Fprintf(&b, "Day rating: %s\n", rating(log.Rating))
		fmt.Fprintf(&b, "Insight: %s\n", orNone(log.Insight))
		fmt.Fprintf(&b, "Challenges: %s\n", orNone(log.Challenge))
	}

	b.WriteString("\nStrategic plan:\n")
	fmt.Fprintf(&b, "3-month goal: %s\n", orNotSet(goals.ThreeMonth.Text))
	if goals.ThreeMonth.StartDate != nil && goals.ThreeMonth.EndDate != nil {
		fmt.Fprintf(&b, "Period: %s to %s\n",
			goals.ThreeMonth.StartDate.Format(model.DateLayout),
			goals.ThreeMonth.EndDate.Format(model.DateLayout))
	}
	for m := 1; m <= model.MonthsPerPlan; m++ {
		month := goals.Month(m)
		fmt.Fprintf(&b, "Month %d: %s\n", m, orNotSet(month.Text))
		for w, week := range month.Weeks {
			if strings.TrimSpace(week.Text) != "" {
				fmt.Fprintf(&b, "  Week %d: %s\n", w+1, week.Text)
			}
		}
	}

	b.WriteString("\nAnalyze the progress and give recommendations.")
	return b.String()
}

// CoachPrompt prefixes every chat prompt with the coach framing.
func CoachPrompt(prompt string) string {
	return coachFraming + prompt
}

// ChatPrompt builds the prompt for one chat turn.
func ChatPrompt(text string, logs map[string]*model.DailyLog, goals model.FixedGoals, now time.Time) string {
	if IsAnalysisRequest(text) {
		return CoachPrompt(AnalysisPrompt(text, logs, goals, now))
	}
	return CoachPrompt(text)
}

// recentLogs keeps logs whose date (midnight UTC) is within the window, oldest first.
func recentLogs(logs map[string]*model.DailyLog, now time.Time) []*model.DailyLog {
	cutoff := now.Add(-analysisWindow)

	var dates []string
	for date, log := range logs {
		d, err := time.Parse(model.DateLayout, date)
		if err != nil || log == nil || d.Before(cutoff) {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	recent := make([]*model.DailyLog, len(dates))
	for i, date := range dates {
		recent[i] = logs[date]
	}
	return recent
}

func taskList(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "None"
	}
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = t.Title + ": " + t.Description
	}
	return strings.Join(parts, ", ")
}

func rating(r *int) string {
	if r == nil {
		return "None"
	}
	return strconv.Itoa(*r)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}
