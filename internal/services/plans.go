package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"prepboard-backend/internal/repository"
	"prepboard-backend/internal/stats"
)

// PlanResolver turns a user's settings into the study-plan dates the
// aggregator needs. Users without explicit dates (and guests, who have no
// settings row at all) get the deployment defaults.
type PlanResolver struct {
	userRepo *repository.UserRepo
	defaults stats.PlanConfig
}

func NewPlanResolver(userRepo *repository.UserRepo, defaults stats.PlanConfig) *PlanResolver {
	return &PlanResolver{userRepo: userRepo, defaults: defaults}
}

func (p *PlanResolver) PlanFor(ctx context.Context, userID uuid.UUID) (stats.PlanConfig, error) {
	plan := p.defaults
	if userID == stats.GuestUserID {
		return plan, nil
	}

	settings, err := p.userRepo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan, nil
		}
		return stats.PlanConfig{}, err
	}

	if settings.ExamDate != nil {
		plan.ExamDate = *settings.ExamDate
	}
	if settings.TargetCompletionDate != nil {
		plan.TargetDate = *settings.TargetCompletionDate
	}
	return plan, nil
}
