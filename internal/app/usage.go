package app

import (
	"context"
	"errors"
	"time"

	"agentboard/internal/model"
)

var ErrQuotaExceeded = errors.New("daily message quota exceeded")

// QuotaPolicy maps plan tiers to daily message limits. A limit of 0 means
// unlimited.
type QuotaPolicy struct {
	FreeDaily       int
	ProDaily        int
	EnterpriseDaily int
}

func (p QuotaPolicy) DailyLimit(plan string) int {
	switch plan {
	case model.PlanPro:
		return p.ProDaily
	case model.PlanEnterprise:
		return p.EnterpriseDaily
	default:
		return p.FreeDaily
	}
}

// UsageService enforces per-tier daily message quotas over a rolling counter.
type UsageService struct {
	counter UsageCounterStore
	policy  QuotaPolicy
	now     func() time.Time
}

func NewUsageService(counter UsageCounterStore, policy QuotaPolicy) *UsageService {
	return &UsageService{
		counter: counter,
		policy:  policy,
		now:     time.Now,
	}
}

// Allow reports whether the user may send another message today.
func (s *UsageService) Allow(ctx context.Context, user *model.User) error {
	limit := s.policy.DailyLimit(user.Plan)
	if limit <= 0 {
		return nil
	}

	used, err := s.counter.Get(ctx, user.ID, s.now())
	if err != nil {
		return err
	}
	if used >= int64(limit) {
		return ErrQuotaExceeded
	}
	return nil
}

// Consume records one sent message against today's counter.
func (s *UsageService) Consume(ctx context.Context, userID uint) error {
	_, err := s.counter.Increment(ctx, userID, s.now())
	return err
}

// UsageSnapshot describes today's quota standing for one user. DailyLimit and
// Remaining are -1 on unlimited plans.
type UsageSnapshot struct {
	Plan       string `json:"plan"`
	DailyLimit int64  `json:"daily_limit"`
	UsedToday  int64  `json:"used_today"`
	Remaining  int64  `json:"remaining"`
}

func (s *UsageService) Snapshot(ctx context.Context, user *model.User) (UsageSnapshot, error) {
	used, err := s.counter.Get(ctx, user.ID, s.now())
	if err != nil {
		return UsageSnapshot{}, err
	}

	snapshot := UsageSnapshot{
		Plan:       user.Plan,
		DailyLimit: -1,
		UsedToday:  used,
		Remaining:  -1,
	}
	if limit := s.policy.DailyLimit(user.Plan); limit > 0 {
		snapshot.DailyLimit = int64(limit)
		snapshot.Remaining = int64(limit) - used
		if snapshot.Remaining < 0 {
			snapshot.Remaining = 0
		}
	}
	return snapshot, nil
}
