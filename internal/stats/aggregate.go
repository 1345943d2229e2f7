package stats

import (
	"math"
	"sort"
	"time"

	"prepboard-backend/internal/models"
)

const dateLayout = "2006-01-02"

// PlanConfig holds the study-plan dates for one user plus the heatmap
// window. ExamDate is the day of the exam; TargetDate is the earlier day by
// which all questions should be finished, leaving a revision buffer.
type PlanConfig struct {
	ExamDate     time.Time
	TargetDate   time.Time
	HeatmapStart time.Time
	HeatmapEnd   time.Time
}

// Aggregate recomputes a full StatsSnapshot from the user's attempt history.
// Records must be ordered ascending by AttemptedAt. The function is pure:
// "now" comes in as a parameter and the same inputs always produce the same
// snapshot.
func Aggregate(records []models.AttemptRecord, now time.Time, catalog models.SubjectCatalog, plan PlanConfig) models.StatsSnapshot {
	buckets := bucketByDay(records)

	snap := models.StatsSnapshot{
		SubjectStats: []models.SubjectStat{},
		HeatmapData:  buildHeatmap(plan.HeatmapStart, plan.HeatmapEnd, buckets),
		Streaks:      computeStreaks(buckets, now),
		GeneratedAt:  now,
	}

	totalQuestions := catalog.TotalQuestions()

	if len(records) == 0 {
		snap.StudyPlan = projectStudyPlan(records, now, totalQuestions, plan)
		return snap
	}

	correct := 0
	for _, rec := range records {
		if rec.WasCorrect != nil && *rec.WasCorrect {
			correct++
		}
	}
	snap.Progress = percent(len(records), totalQuestions)
	snap.Accuracy = percent(correct, len(records))
	snap.SubjectStats = rollupSubjects(records, catalog)
	snap.StudyPlan = projectStudyPlan(records, now, totalQuestions, plan)

	return snap
}

// percent returns round(n/d*100), with 0 for a zero denominator so that a
// fresh account or an empty catalog never produces NaN.
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}

// civilDay truncates a timestamp to its own calendar day, as seen in the
// timestamp's location. The result is normalized to UTC midnight so day
// arithmetic is plain 24h steps.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween is the calendar-day difference b-a, negative when b is
// earlier.
func daysBetween(a, b time.Time) int {
	return int(civilDay(b).Sub(civilDay(a)).Hours() / 24)
}

func bucketByDay(records []models.AttemptRecord) map[string]int {
	buckets := make(map[string]int)
	for _, rec := range records {
		buckets[rec.AttemptedAt.Format(dateLayout)]++
	}
	return buckets
}

// buildHeatmap produces one entry per calendar day in [start, end],
// zero-filled, ascending. A start after end is a configuration bug; the
// heatmap is display-only, so it degrades to empty instead of failing the
// whole snapshot.
func buildHeatmap(start, end time.Time, buckets map[string]int) []models.HeatmapDay {
	days := []models.HeatmapDay{}
	from, to := civilDay(start), civilDay(end)
	if from.After(to) {
		return days
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		days = append(days, models.HeatmapDay{Date: key, Count: buckets[key]})
	}
	return days
}

// computeStreaks walks the sorted active days and tracks consecutive runs.
// The run ending at the last active day only counts as the current streak
// if that day is today or yesterday relative to now; otherwise the streak
// is broken and current decays to 0 while longest is preserved.
func computeStreaks(buckets map[string]int, now time.Time) models.Streaks {
	if len(buckets) == 0 {
		return models.Streaks{}
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)

	var current, longest int
	var prev time.Time
	for i, key := range days {
		day, err := time.Parse(dateLayout, key)
		if err != nil {
			continue
		}
		if i == 0 || daysBetween(prev, day) == 1 {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = day
	}

	if daysBetween(prev, now) > 1 {
		current = 0
	}

	return models.Streaks{Current: current, Longest: longest}
}

// rollupSubjects groups records by subject in order of first appearance.
func rollupSubjects(records []models.AttemptRecord, catalog models.SubjectCatalog) []models.SubjectStat {
	type group struct {
		total     int
		correct   int
		questions map[string]struct{}
		order     []string
	}

	groups := make(map[string]*group)
	var subjects []string
	for _, rec := range records {
		g, ok := groups[rec.Subject]
		if !ok {
			g = &group{questions: make(map[string]struct{})}
			groups[rec.Subject] = g
			subjects = append(subjects, rec.Subject)
		}
		g.total++
		if rec.WasCorrect != nil && *rec.WasCorrect {
			g.correct++
		}
		if _, seen := g.questions[rec.QuestionID]; !seen {
			g.questions[rec.QuestionID] = struct{}{}
			g.order = append(g.order, rec.QuestionID)
		}
	}

	stats := make([]models.SubjectStat, 0, len(subjects))
	for _, subject := range subjects {
		g := groups[subject]
		available, known := catalog.QuestionsFor(subject)
		if !known || available <= 0 {
			// Floor to 1 to keep the division defined. The resulting
			// progress figure is inflated; InCatalog lets callers render
			// it as unknown instead.
			available = 1
		}
		stats = append(stats, models.SubjectStat{
			Subject:              subject,
			Accuracy:             percent(g.correct, g.total),
			Progress:             percent(len(g.questions), available),
			AttemptedQuestionIDs: g.order,
			Attempted:            len(g.questions),
			TotalAttempts:        g.total,
			TotalAvailable:       available,
			InCatalog:            known,
		})
	}
	return stats
}

func projectStudyPlan(records []models.AttemptRecord, now time.Time, totalQuestions int, plan PlanConfig) models.StudyPlanProjection {
	daysLeft := daysBetween(now, plan.ExamDate)
	if daysLeft < 0 {
		daysLeft = 0
	}
	daysToTarget := daysBetween(now, plan.TargetDate)
	if daysToTarget < 0 {
		daysToTarget = 0
	}

	today := now.Format(dateLayout)
	unique := make(map[string]struct{})
	todayUnique := make(map[string]struct{})
	for _, rec := range records {
		unique[rec.QuestionID] = struct{}{}
		if rec.AttemptedAt.Format(dateLayout) == today {
			todayUnique[rec.QuestionID] = struct{}{}
		}
	}

	remaining := totalQuestions - len(unique)
	if remaining < 0 {
		remaining = 0
	}

	// Past the completion target every remaining question is due today.
	target := remaining
	if daysToTarget > 0 {
		target = int(math.Ceil(float64(remaining) / float64(daysToTarget)))
	}

	return models.StudyPlanProjection{
		TotalQuestions:          totalQuestions,
		UniqueAttemptCount:      len(unique),
		RemainingQuestions:      remaining,
		DaysLeft:                daysLeft,
		DailyQuestionTarget:     target,
		TodayUniqueAttemptCount: len(todayUnique),
		ProgressPercent:         percent(len(unique), totalQuestions),
		TodayProgressPercent:    percent(len(todayUnique), target),
		IsTargetMetToday:        target > 0 && len(todayUnique) >= target,
	}
}
