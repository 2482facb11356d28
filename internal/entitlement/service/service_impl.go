package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/clock"
	"github.com/zalingo/billing/internal/entitlement/domain"
	"github.com/zalingo/billing/internal/observability/metrics"
	"github.com/zalingo/billing/internal/plan"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *metrics.BillingMetrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	clock   clock.Clock
	metrics *metrics.BillingMetrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("entitlement.service"),
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) ApplyPlan(ctx context.Context, customerID string, p plan.Plan) (*domain.Entitlement, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	record := &domain.Entitlement{
		CustomerID:   customerID,
		Plan:         p.Name,
		MessageLimit: p.MessageLimit,
		MessagesUsed: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return nil, err
	}

	stored, err := s.repo.Find(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("entitlement_upsert_lost")
	}

	s.log.Info("entitlement applied",
		zap.String("customer_id", customerID),
		zap.String("plan", stored.Plan),
		zap.Int64("message_limit", stored.MessageLimit),
		zap.Int64("messages_used", stored.MessagesUsed),
	)
	return stored, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (*domain.Entitlement, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	record, err := s.repo.Find(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *Service) Consume(ctx context.Context, customerID string) (domain.ConsumeResult, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.ConsumeResult{}, domain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	if err := s.repo.EnsureDefault(ctx, s.db, customerID, plan.FreeTier, now); err != nil {
		return domain.ConsumeResult{}, err
	}

	allowed, err := s.repo.ConsumeOne(ctx, s.db, customerID, now)
	if err != nil {
		return domain.ConsumeResult{}, err
	}
	s.metrics.IncConsume(allowed)
	if !allowed {
		return domain.ConsumeResult{Allowed: false, Remaining: 0}, nil
	}

	record, err := s.repo.Find(ctx, s.db, customerID)
	if err != nil {
		return domain.ConsumeResult{}, err
	}
	if record == nil {
		return domain.ConsumeResult{}, errors.New("entitlement_consume_lost")
	}

	remaining := plan.UnlimitedLimit
	if record.MessageLimit != plan.UnlimitedLimit {
		remaining = record.MessageLimit - record.MessagesUsed
		if remaining < 0 {
			remaining = 0
		}
	}
	return domain.ConsumeResult{Allowed: true, Remaining: remaining}, nil
}
