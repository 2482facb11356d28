package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/cache"
	"github.com/zalingo/billing/internal/clock"
	entitlementdomain "github.com/zalingo/billing/internal/entitlement/domain"
	"github.com/zalingo/billing/internal/events"
	"github.com/zalingo/billing/internal/observability/metrics"
	paymentdomain "github.com/zalingo/billing/internal/payment/domain"
	"github.com/zalingo/billing/internal/plan"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Catalog        *plan.Catalog
	Adapter        paymentdomain.PaymentAdapter
	Repo           paymentdomain.Repository
	EntitlementSvc entitlementdomain.Service
	Outbox         *events.Outbox
	Metrics        *metrics.BillingMetrics
}

// processedCacheTTL bounds how long a processed event id short-circuits
// redeliveries without touching storage. The unique constraint on
// payment_events remains authoritative after expiry.
const processedCacheTTL = 30 * time.Minute

const processedCacheSize = 8192

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	catalog        *plan.Catalog
	adapter        paymentdomain.PaymentAdapter
	repo           paymentdomain.Repository
	entitlementSvc entitlementdomain.Service
	outbox         *events.Outbox
	metrics        *metrics.BillingMetrics
	processed      *cache.TTLCache[string, struct{}]
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("payment.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		catalog:        p.Catalog,
		adapter:        p.Adapter,
		repo:           p.Repo,
		entitlementSvc: p.EntitlementSvc,
		outbox:         p.Outbox,
		metrics:        p.Metrics,
		processed:      cache.NewTTLCache[string, struct{}](processedCacheSize),
	}
}

// IngestWebhook reconciles one provider delivery. A nil return is an
// acknowledgement; only authenticity failures and storage failures
// propagate, and the HTTP layer keeps those two distinguishable so the
// provider retries the latter but not the former.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if !json.Valid(payload) {
		s.metrics.IncEventReconciled(metrics.OutcomeRejected)
		return paymentdomain.ErrInvalidPayload
	}

	if err := s.adapter.Verify(ctx, payload, headers); err != nil {
		s.metrics.IncEventReconciled(metrics.OutcomeRejected)
		return err
	}

	event, err := s.adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.metrics.IncEventReconciled(metrics.OutcomeIgnored)
			return nil
		}
		s.metrics.IncEventReconciled(metrics.OutcomeRejected)
		return err
	}

	if event.PriceID == "" {
		s.log.Warn("checkout completion without a price reference",
			zap.String("provider_event_id", event.ProviderEventID),
		)
		s.metrics.IncEventReconciled(metrics.OutcomeIgnored)
		return nil
	}
	if event.CustomerID == "" {
		s.log.Warn("checkout completion without a customer reference",
			zap.String("provider_event_id", event.ProviderEventID),
		)
		s.metrics.IncEventReconciled(metrics.OutcomeIgnored)
		return nil
	}

	purchased, ok := s.catalog.Lookup(event.PriceID)
	if !ok {
		// Provider-side catalog drift must not take the service down.
		s.log.Warn("checkout completion for unknown price",
			zap.String("provider_event_id", event.ProviderEventID),
			zap.String("price_id", event.PriceID),
		)
		s.metrics.IncEventReconciled(metrics.OutcomeIgnored)
		return nil
	}

	dedupeKey := event.Provider + ":" + event.ProviderEventID
	if _, seen := s.processed.Get(dedupeKey); seen {
		s.metrics.IncEventReconciled(metrics.OutcomeDuplicate)
		return nil
	}

	now := s.clock.Now()
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		CustomerID:      event.CustomerID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		s.metrics.IncEventReconciled(metrics.OutcomeFailed)
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			s.metrics.IncEventReconciled(metrics.OutcomeFailed)
			return err
		}
		if stored == nil {
			s.metrics.IncEventReconciled(metrics.OutcomeFailed)
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			s.processed.Set(dedupeKey, struct{}{}, processedCacheTTL)
			s.metrics.IncEventReconciled(metrics.OutcomeDuplicate)
			return nil
		}
	}

	record, err := s.entitlementSvc.ApplyPlan(ctx, event.CustomerID, purchased)
	if err != nil {
		s.metrics.IncEventReconciled(metrics.OutcomeFailed)
		return err
	}

	if err := s.outbox.Publish(ctx, events.Event{
		Type:      events.EventEntitlementUpdated,
		DedupeKey: dedupeKey,
		Payload: events.EntitlementUpdatedPayload{
			CustomerID:   record.CustomerID,
			Plan:         record.Plan,
			MessageLimit: record.MessageLimit,
			MessagesUsed: record.MessagesUsed,
			PriceID:      event.PriceID,
			EventID:      event.ProviderEventID,
		}.ToMap(),
	}); err != nil {
		s.metrics.IncEventReconciled(metrics.OutcomeFailed)
		return err
	}

	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, s.clock.Now()); err != nil {
		s.metrics.IncEventReconciled(metrics.OutcomeFailed)
		return err
	}
	s.processed.Set(dedupeKey, struct{}{}, processedCacheTTL)

	s.log.Info("checkout completion applied",
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("customer_id", event.CustomerID),
		zap.String("plan", purchased.Name),
	)
	s.metrics.IncEventReconciled(metrics.OutcomeApplied)
	return nil
}
