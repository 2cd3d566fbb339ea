package model

// Snapshot is the full persisted state of one namespace. It is always written whole.
type Snapshot struct {
	DailyLogs    map[string]*DailyLog `json:"dailyLogs"`
	FixedGoals   FixedGoals           `json:"fixedGoals"`
	ChatMessages []ChatMessage        `json:"chatMessages"`
	ViewingDate  string               `json:"viewingDate"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		DailyLogs:    make(map[string]*DailyLog),
		ChatMessages: []ChatMessage{},
	}
}

// ExportFile is the downloadable backup format.
type ExportFile struct {
	DailyLogs    map[string]*DailyLog `json:"dailyLogs"`
	FixedGoals   FixedGoals           `json:"fixedGoals"`
	ChatMessages []ChatMessage        `json:"chatMessages"`
	ExportDate   string               `json:"exportDate"`
}
