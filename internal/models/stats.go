package models

import "time"

// StatsSnapshot is the full output of one aggregation pass. A new snapshot
// replaces the previous one wholesale; there is no incremental merge.
type StatsSnapshot struct {
	Progress     int                 `json:"progress"`
	Accuracy     int                 `json:"accuracy"`
	SubjectStats []SubjectStat       `json:"subject_stats"`
	HeatmapData  []HeatmapDay        `json:"heatmap"`
	Streaks      Streaks             `json:"streaks"`
	StudyPlan    StudyPlanProjection `json:"study_plan"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// HeatmapDay is one calendar day of the activity heatmap. Count is raw
// attempts, not unique questions.
type HeatmapDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type Streaks struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// SubjectStat rolls up one subject's attempt history. Accuracy is over raw
// attempts, progress over distinct questions. InCatalog is false when the
// subject is missing from the catalog, in which case TotalAvailable is
// floored to 1 and the progress figure is not trustworthy.
type SubjectStat struct {
	Subject              string   `json:"subject"`
	Accuracy             int      `json:"accuracy"`
	Progress             int      `json:"progress"`
	AttemptedQuestionIDs []string `json:"attempted_question_ids"`
	Attempted            int      `json:"attempted"`
	TotalAttempts        int      `json:"total_attempts"`
	TotalAvailable       int      `json:"total_available"`
	InCatalog            bool     `json:"in_catalog"`
}

type StudyPlanProjection struct {
	TotalQuestions          int  `json:"total_questions"`
	UniqueAttemptCount      int  `json:"unique_attempt_count"`
	RemainingQuestions      int  `json:"remaining_questions"`
	DaysLeft                int  `json:"days_left"`
	DailyQuestionTarget     int  `json:"daily_question_target"`
	TodayUniqueAttemptCount int  `json:"today_unique_attempt_count"`
	ProgressPercent         int  `json:"progress_percent"`
	TodayProgressPercent    int  `json:"today_progress_percent"`
	IsTargetMetToday        bool `json:"is_target_met_today"`
}

// WebSocket envelope pushed to dashboard clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// API error response envelope.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
