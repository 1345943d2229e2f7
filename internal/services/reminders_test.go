package services

import (
	"testing"
	"time"
)

func TestShouldSendByLastSent(t *testing.T) {
	now := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)

	if !shouldSendByLastSent("", studyReminderInterval, now) {
		t.Fatalf("expected empty last-sent value to allow sending")
	}

	if !shouldSendByLastSent("not-a-date", studyReminderInterval, now) {
		t.Fatalf("expected invalid timestamp to allow sending")
	}

	recent := now.Add(-2 * time.Hour).Format(time.RFC3339)
	if shouldSendByLastSent(recent, studyReminderInterval, now) {
		t.Fatalf("expected recent send timestamp to block sending")
	}

	old := now.Add(-26 * time.Hour).Format(time.RFC3339)
	if !shouldSendByLastSent(old, studyReminderInterval, now) {
		t.Fatalf("expected old send timestamp to allow sending")
	}

	exact := now.Add(-studyReminderInterval).Format(time.RFC3339)
	if !shouldSendByLastSent(exact, studyReminderInterval, now) {
		t.Fatalf("expected send exactly at the interval boundary")
	}
}

func TestActivityStale(t *testing.T) {
	now := time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC)

	if !activityStale(nil, now) {
		t.Fatalf("expected a user with no attempts to count as stale")
	}

	recent := now.Add(-30 * time.Minute)
	if activityStale(&recent, now) {
		t.Fatalf("expected recent activity to suppress the reminder")
	}

	idle := now.Add(-5 * time.Hour)
	if !activityStale(&idle, now) {
		t.Fatalf("expected activity older than the idle window to count as stale")
	}

	boundary := now.Add(-studyReminderIdleWindow)
	if !activityStale(&boundary, now) {
		t.Fatalf("expected staleness exactly at the idle window boundary")
	}
}
