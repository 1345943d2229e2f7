package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"prepboard-backend/internal/models"
)

var testCatalog = models.SubjectCatalog{
	{APIName: "anatomy", DisplayName: "Anatomy", Questions: 100, Category: "preclinical"},
	{APIName: "physiology", DisplayName: "Physiology", Questions: 50, Category: "preclinical"},
	{APIName: "bookmarked", DisplayName: "Bookmarked", Questions: 75, Category: "bookmarked"},
}

func testPlan() PlanConfig {
	return PlanConfig{
		ExamDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		TargetDate:   time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC),
		HeatmapStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		HeatmapEnd:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func boolPtr(b bool) *bool { return &b }

func attempt(question, subject string, correct bool, at time.Time) models.AttemptRecord {
	return models.AttemptRecord{
		ID:          uuid.New(),
		QuestionID:  question,
		Subject:     subject,
		WasCorrect:  boolPtr(correct),
		AttemptedAt: at,
	}
}

func at(day string) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t.Add(10 * time.Hour)
}

func heatmapCount(t *testing.T, snap models.StatsSnapshot, date string) int {
	t.Helper()
	for _, d := range snap.HeatmapData {
		if d.Date == date {
			return d.Count
		}
	}
	t.Fatalf("date %s not in heatmap", date)
	return 0
}

func TestAggregate_EmptyHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := Aggregate(nil, now, testCatalog, testPlan())

	if snap.Progress != 0 || snap.Accuracy != 0 {
		t.Errorf("Expected zero progress/accuracy, got %d/%d", snap.Progress, snap.Accuracy)
	}
	if snap.Streaks.Current != 0 || snap.Streaks.Longest != 0 {
		t.Errorf("Expected zero streaks, got %+v", snap.Streaks)
	}
	if len(snap.SubjectStats) != 0 {
		t.Errorf("Expected no subject stats, got %d", len(snap.SubjectStats))
	}
	if len(snap.HeatmapData) != 365 {
		t.Errorf("Expected 365 heatmap days, got %d", len(snap.HeatmapData))
	}
	for _, d := range snap.HeatmapData {
		if d.Count != 0 {
			t.Errorf("Expected zero count on %s, got %d", d.Date, d.Count)
		}
	}

	sp := snap.StudyPlan
	if sp.TotalQuestions != 150 {
		t.Errorf("Expected 150 total questions (bookmarked excluded), got %d", sp.TotalQuestions)
	}
	if sp.UniqueAttemptCount != 0 || sp.RemainingQuestions != 150 {
		t.Errorf("Expected 0 unique / 150 remaining, got %d/%d", sp.UniqueAttemptCount, sp.RemainingQuestions)
	}
}

func TestAggregate_HeatmapCompleteness(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []models.AttemptRecord{
		attempt("Q1", "anatomy", true, at("2025-03-10")),
		attempt("Q2", "anatomy", false, at("2025-03-10")),
		attempt("Q3", "physiology", true, at("2025-05-01")),
	}

	snap := Aggregate(records, now, testCatalog, testPlan())

	if len(snap.HeatmapData) != 365 {
		t.Fatalf("Expected 365 heatmap days, got %d", len(snap.HeatmapData))
	}
	for i := 1; i < len(snap.HeatmapData); i++ {
		if snap.HeatmapData[i-1].Date >= snap.HeatmapData[i].Date {
			t.Fatalf("Heatmap not strictly ascending at index %d: %s >= %s",
				i, snap.HeatmapData[i-1].Date, snap.HeatmapData[i].Date)
		}
	}
	if snap.HeatmapData[0].Date != "2025-01-01" || snap.HeatmapData[364].Date != "2025-12-31" {
		t.Errorf("Heatmap bounds wrong: %s .. %s", snap.HeatmapData[0].Date, snap.HeatmapData[364].Date)
	}

	if got := heatmapCount(t, snap, "2025-03-10"); got != 2 {
		t.Errorf("Expected count 2 on 2025-03-10, got %d", got)
	}
	if got := heatmapCount(t, snap, "2025-05-01"); got != 1 {
		t.Errorf("Expected count 1 on 2025-05-01, got %d", got)
	}
	if got := heatmapCount(t, snap, "2025-03-11"); got != 0 {
		t.Errorf("Expected zero count on idle day, got %d", got)
	}
}

func TestAggregate_InvalidHeatmapWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	plan := testPlan()
	plan.HeatmapStart, plan.HeatmapEnd = plan.HeatmapEnd, plan.HeatmapStart

	records := []models.AttemptRecord{
		attempt("Q1", "anatomy", true, at("2025-03-10")),
	}

	snap := Aggregate(records, now, testCatalog, plan)

	if len(snap.HeatmapData) != 0 {
		t.Errorf("Expected empty heatmap for inverted window, got %d entries", len(snap.HeatmapData))
	}
	// The heatmap is display-only; everything else still computes.
	if snap.Accuracy != 100 {
		t.Errorf("Expected accuracy 100, got %d", snap.Accuracy)
	}
	if snap.Streaks.Longest != 1 {
		t.Errorf("Expected longest streak 1, got %d", snap.Streaks.Longest)
	}
}

func TestAggregate_Streaks(t *testing.T) {
	tests := []struct {
		name        string
		activeDays  []string
		now         string
		wantCurrent int
		wantLongest int
	}{
		{"no activity", nil, "2025-06-04", 0, 0},
		{"single day today", []string{"2025-06-04"}, "2025-06-04", 1, 1},
		{"run ending today", []string{"2025-06-02", "2025-06-03", "2025-06-04"}, "2025-06-04", 3, 3},
		{"gap restarts run", []string{"2025-06-01", "2025-06-02", "2025-06-04"}, "2025-06-04", 1, 2},
		{"run ending yesterday survives", []string{"2025-06-02", "2025-06-03"}, "2025-06-04", 2, 2},
		{"stale run decays to zero", []string{"2025-05-18", "2025-05-19", "2025-05-20"}, "2025-06-04", 0, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var records []models.AttemptRecord
			for i, day := range tc.activeDays {
				records = append(records, attempt("Q"+day, "anatomy", i%2 == 0, at(day)))
			}
			now := at(tc.now)

			snap := Aggregate(records, now, testCatalog, testPlan())

			if snap.Streaks.Current != tc.wantCurrent {
				t.Errorf("Expected current streak %d, got %d", tc.wantCurrent, snap.Streaks.Current)
			}
			if snap.Streaks.Longest != tc.wantLongest {
				t.Errorf("Expected longest streak %d, got %d", tc.wantLongest, snap.Streaks.Longest)
			}
			if snap.Streaks.Current > snap.Streaks.Longest {
				t.Errorf("Current streak %d exceeds longest %d", snap.Streaks.Current, snap.Streaks.Longest)
			}
		})
	}
}

func TestAggregate_SingleDayDoubleAttempt(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	records := []models.AttemptRecord{
		attempt("Q1", "anatomy", true, at("2025-06-01")),
		attempt("Q1", "anatomy", false, at("2025-06-01")),
	}

	snap := Aggregate(records, now, testCatalog, testPlan())

	if got := heatmapCount(t, snap, "2025-06-01"); got != 2 {
		t.Errorf("Expected heatmap count 2 (raw attempts), got %d", got)
	}
	if snap.StudyPlan.TodayUniqueAttemptCount != 1 {
		t.Errorf("Expected 1 unique attempt today, got %d", snap.StudyPlan.TodayUniqueAttemptCount)
	}

	if len(snap.SubjectStats) != 1 {
		t.Fatalf("Expected 1 subject stat, got %d", len(snap.SubjectStats))
	}
	subj := snap.SubjectStats[0]
	if subj.Attempted != 1 || subj.TotalAttempts != 2 {
		t.Errorf("Expected attempted=1 total=2, got %d/%d", subj.Attempted, subj.TotalAttempts)
	}
	if subj.Accuracy != 50 {
		t.Errorf("Expected accuracy 50, got %d", subj.Accuracy)
	}
}

func TestAggregate_ProgressUsesRawCount(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	records := []models.AttemptRecord{
		attempt("Q1", "anatomy", true, at("2025-05-30")),
		attempt("Q1", "anatomy", true, at("2025-05-31")),
		attempt("Q1", "anatomy", false, at("2025-06-01")),
	}

	snap := Aggregate(records, now, testCatalog, testPlan())

	// Overall progress counts raw rows: round(3/150*100) = 2.
	if snap.Progress != 2 {
		t.Errorf("Expected progress 2, got %d", snap.Progress)
	}
	// The study plan counts distinct questions: round(1/150*100) = 1.
	if snap.StudyPlan.ProgressPercent != 1 {
		t.Errorf("Expected study plan progress 1, got %d", snap.StudyPlan.ProgressPercent)
	}
	if snap.StudyPlan.UniqueAttemptCount != 1 {
		t.Errorf("Expected 1 unique attempt, got %d", snap.StudyPlan.UniqueAttemptCount)
	}
}

func TestAggregate_StudyPlanTargets(t *testing.T) {
	records := []models.AttemptRecord{}
	for i := 0; i < 140; i++ {
		records = append(records, attempt(
			"Q"+string(rune('A'+i%26))+string(rune('0'+i/26)), "anatomy", true, at("2025-05-01")))
	}

	t.Run("target spread over remaining days", func(t *testing.T) {
		// 10 remaining, 3 days to target: ceil(10/3) = 4 per day.
		now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
		snap := Aggregate(records, now, testCatalog, testPlan())

		sp := snap.StudyPlan
		if sp.RemainingQuestions != 10 {
			t.Fatalf("Expected 10 remaining, got %d", sp.RemainingQuestions)
		}
		if sp.DailyQuestionTarget != 4 {
			t.Errorf("Expected daily target 4, got %d", sp.DailyQuestionTarget)
		}
		if sp.DaysLeft != 13 {
			t.Errorf("Expected 13 days to exam, got %d", sp.DaysLeft)
		}
	})

	t.Run("target collapses when completion date passed", func(t *testing.T) {
		now := time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC)
		snap := Aggregate(records, now, testCatalog, testPlan())

		sp := snap.StudyPlan
		if sp.DailyQuestionTarget != sp.RemainingQuestions {
			t.Errorf("Expected target to collapse to remaining (%d), got %d",
				sp.RemainingQuestions, sp.DailyQuestionTarget)
		}
	})

	t.Run("days left floors at zero after exam", func(t *testing.T) {
		now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
		snap := Aggregate(records, now, testCatalog, testPlan())

		if snap.StudyPlan.DaysLeft != 0 {
			t.Errorf("Expected 0 days left, got %d", snap.StudyPlan.DaysLeft)
		}
	})
}

func TestAggregate_TargetMetToday(t *testing.T) {
	// 148 of 150 questions done, 2 days to target: 1 per day.
	records := []models.AttemptRecord{}
	for i := 0; i < 148; i++ {
		records = append(records, attempt(
			"Q"+string(rune('A'+i%26))+string(rune('0'+i/26)), "anatomy", true, at("2025-05-01")))
	}
	records = append(records, attempt("Qnew1", "anatomy", true, at("2025-06-19")))

	now := time.Date(2025, 6, 19, 20, 0, 0, 0, time.UTC)
	snap := Aggregate(records, now, testCatalog, testPlan())

	sp := snap.StudyPlan
	if sp.DailyQuestionTarget != 1 {
		t.Fatalf("Expected daily target 1, got %d", sp.DailyQuestionTarget)
	}
	if sp.TodayUniqueAttemptCount != 1 {
		t.Fatalf("Expected 1 unique attempt today, got %d", sp.TodayUniqueAttemptCount)
	}
	if !sp.IsTargetMetToday {
		t.Error("Expected today's target to be met")
	}
	if sp.TodayProgressPercent != 100 {
		t.Errorf("Expected today progress 100, got %d", sp.TodayProgressPercent)
	}
}

func TestAggregate_UnknownSubject(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []models.AttemptRecord{
		attempt("Q1", "Unknown101", true, at("2025-05-20")),
	}

	snap := Aggregate(records, now, testCatalog, testPlan())

	if len(snap.SubjectStats) != 1 {
		t.Fatalf("Expected 1 subject stat, got %d", len(snap.SubjectStats))
	}
	subj := snap.SubjectStats[0]
	if subj.InCatalog {
		t.Error("Expected InCatalog=false for unknown subject")
	}
	if subj.TotalAvailable != 1 {
		t.Errorf("Expected floored total available 1, got %d", subj.TotalAvailable)
	}
	// Known inflation: one unique question over the floor of 1 reads as 100%.
	if subj.Progress != 100 {
		t.Errorf("Expected progress 100 for unknown subject, got %d", subj.Progress)
	}
}

func TestAggregate_SubjectOrderAndNilCorrect(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	skipped := models.AttemptRecord{
		ID: uuid.New(), QuestionID: "Q3", Subject: "anatomy", WasCorrect: nil, AttemptedAt: at("2025-05-21"),
	}
	records := []models.AttemptRecord{
		attempt("Q1", "physiology", true, at("2025-05-20")),
		attempt("Q2", "anatomy", true, at("2025-05-20")),
		skipped,
	}

	snap := Aggregate(records, now, testCatalog, testPlan())

	if len(snap.SubjectStats) != 2 {
		t.Fatalf("Expected 2 subject stats, got %d", len(snap.SubjectStats))
	}
	if snap.SubjectStats[0].Subject != "physiology" || snap.SubjectStats[1].Subject != "anatomy" {
		t.Errorf("Expected first-appearance order, got %s then %s",
			snap.SubjectStats[0].Subject, snap.SubjectStats[1].Subject)
	}

	// A nil verdict is not a correct answer.
	anatomy := snap.SubjectStats[1]
	if anatomy.TotalAttempts != 2 || anatomy.Accuracy != 50 {
		t.Errorf("Expected 2 attempts at 50%% accuracy, got %d at %d%%", anatomy.TotalAttempts, anatomy.Accuracy)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []models.AttemptRecord{
		attempt("Q1", "anatomy", true, at("2025-05-20")),
		attempt("Q2", "physiology", false, at("2025-05-21")),
		attempt("Q2", "physiology", true, at("2025-06-01")),
	}

	first := Aggregate(records, now, testCatalog, testPlan())
	second := Aggregate(records, now, testCatalog, testPlan())

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical snapshots for identical input")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		n, d     int
		expected int
	}{
		{"zero denominator", 5, 0, 0},
		{"zero numerator", 0, 10, 0},
		{"rounds to nearest", 1, 3, 33},
		{"rounds half up", 1, 2, 50},
		{"full", 10, 10, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := percent(tc.n, tc.d); got != tc.expected {
				t.Errorf("percent(%d, %d) = %d, expected %d", tc.n, tc.d, got, tc.expected)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	b := time.Date(2025, 6, 2, 0, 10, 0, 0, time.UTC)
	if got := daysBetween(a, b); got != 1 {
		t.Errorf("Expected 1 calendar day across midnight, got %d", got)
	}
	if got := daysBetween(b, a); got != -1 {
		t.Errorf("Expected -1 for reversed order, got %d", got)
	}
	if got := daysBetween(a, a); got != 0 {
		t.Errorf("Expected 0 for same day, got %d", got)
	}
}
