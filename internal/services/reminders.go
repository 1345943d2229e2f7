package services

import (
	"context"
	"log"
	"time"

	"prepboard-backend/internal/models"
	"prepboard-backend/internal/repository"
	"prepboard-backend/internal/stats"
)

const (
	studyReminderToggleKey   = "study_reminders"
	studyReminderLastSentKey = "study_reminders_last_sent_at"
	studyReminderInterval    = 20 * time.Hour
	studyReminderIdleWindow  = 3 * time.Hour
	reminderPollInterval     = 1 * time.Hour
)

// ReminderScheduler emails users who have reminders enabled, have not met
// today's question target, and have been idle long enough that a nudge is
// useful. It reuses the pure aggregator, so the numbers in the email always
// match what the dashboard would show.
type ReminderScheduler struct {
	userRepo    *repository.UserRepo
	attemptRepo *repository.AttemptRepo
	plans       *PlanResolver
	catalog     models.SubjectCatalog
	email       *EmailService
	stopChan    chan struct{}
}

func NewReminderScheduler(userRepo *repository.UserRepo, attemptRepo *repository.AttemptRepo, plans *PlanResolver, catalog models.SubjectCatalog, email *EmailService) *ReminderScheduler {
	return &ReminderScheduler{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		plans:       plans,
		catalog:     catalog,
		email:       email,
		stopChan:    make(chan struct{}),
	}
}

func (s *ReminderScheduler) Start() {
	if s.userRepo == nil || s.email == nil {
		return
	}

	go s.loop()

	log.Printf("Reminder scheduler started")
}

func (s *ReminderScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *ReminderScheduler) loop() {
	// Run on startup as well as by interval.
	s.sendStudyReminders(context.Background(), time.Now())

	ticker := time.NewTicker(reminderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sendStudyReminders(context.Background(), time.Now())
		}
	}
}

func (s *ReminderScheduler) sendStudyReminders(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListReminderRecipients(ctx, studyReminderToggleKey, studyReminderLastSentKey)
	if err != nil {
		log.Printf("study reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		if !shouldSendByLastSent(recipient.LastSentAtRaw, studyReminderInterval, now) {
			continue
		}

		latest, err := s.attemptRepo.LatestAttemptAt(ctx, recipient.ID)
		if err != nil {
			log.Printf("study reminders: failed to load latest attempt for user %s: %v", recipient.ID, err)
			continue
		}
		if !activityStale(latest, now) {
			continue
		}

		plan, err := s.plans.PlanFor(ctx, recipient.ID)
		if err != nil {
			log.Printf("study reminders: failed to resolve plan for user %s: %v", recipient.ID, err)
			continue
		}

		records, err := s.attemptRepo.ListByUser(ctx, recipient.ID)
		if err != nil {
			log.Printf("study reminders: failed to load attempts for user %s: %v", recipient.ID, err)
			continue
		}

		snap := stats.Aggregate(records, now, s.catalog, plan)
		sp := snap.StudyPlan
		if sp.DailyQuestionTarget == 0 || sp.IsTargetMetToday {
			continue
		}

		remaining := sp.DailyQuestionTarget - sp.TodayUniqueAttemptCount
		if err := s.email.SendStudyReminderEmail(recipient.Email, recipient.FullName, remaining, sp.DailyQuestionTarget); err != nil {
			log.Printf("study reminders: failed to send to %s: %v", recipient.Email, err)
			continue
		}

		if err := s.userRepo.SetNotificationTimestamp(ctx, recipient.ID, studyReminderLastSentKey, now); err != nil {
			log.Printf("study reminders: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

// activityStale reports whether the user's most recent attempt is old
// enough to warrant a nudge. A user who answered something within the idle
// window is mid-session and gets no email; a user who never attempted
// anything is always stale.
func activityStale(latest *time.Time, now time.Time) bool {
	if latest == nil {
		return true
	}
	return now.Sub(*latest) >= studyReminderIdleWindow
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}
