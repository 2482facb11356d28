package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/clock"
	"github.com/zalingo/billing/internal/entitlement/domain"
	"github.com/zalingo/billing/internal/entitlement/repository"
	"github.com/zalingo/billing/internal/plan"
)

func setupEntitlementTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entitlements.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// Single connection serializes writers, matching the atomicity the
	// production store provides.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS entitlements (
			customer_id   TEXT PRIMARY KEY,
			plan          TEXT NOT NULL,
			message_limit BIGINT NOT NULL,
			messages_used BIGINT NOT NULL DEFAULT 0,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create entitlements: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		db:    setupEntitlementTestDB(t),
		log:   zap.NewNop(),
		repo:  repository.Provide(),
		clock: clock.Fixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestApplyPlanCreatesFreshRecord(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.ApplyPlan(context.Background(), "cus_123", plan.Plan{Name: "Starter", MessageLimit: 50})
	if err != nil {
		t.Fatalf("apply plan: %v", err)
	}
	if record.Plan != "Starter" || record.MessageLimit != 50 || record.MessagesUsed != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestApplyPlanPreservesUsage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ApplyPlan(ctx, "cus_123", plan.Plan{Name: "Starter", MessageLimit: 50}); err != nil {
		t.Fatalf("apply plan: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := svc.Consume(ctx, "cus_123"); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	record, err := svc.ApplyPlan(ctx, "cus_123", plan.Plan{Name: "Standard", MessageLimit: 200})
	if err != nil {
		t.Fatalf("apply new plan: %v", err)
	}
	if record.Plan != "Standard" || record.MessageLimit != 200 {
		t.Fatalf("plan not updated: %+v", record)
	}
	if record.MessagesUsed != 5 {
		t.Fatalf("plan change must preserve usage, got %d", record.MessagesUsed)
	}
}

func TestApplyPlanIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.ApplyPlan(ctx, "cus_123", plan.Plan{Name: "Starter", MessageLimit: 50})
	if err != nil {
		t.Fatalf("apply plan: %v", err)
	}
	second, err := svc.ApplyPlan(ctx, "cus_123", plan.Plan{Name: "Starter", MessageLimit: 50})
	if err != nil {
		t.Fatalf("re-apply plan: %v", err)
	}
	if *first != *second {
		t.Fatalf("duplicate apply changed the record: %+v vs %+v", first, second)
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "cus_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConsumeProvisionsFreeTier(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.Consume(ctx, "cus_fresh")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !result.Allowed || result.Remaining != 9 {
		t.Fatalf("expected allowed with 9 remaining, got %+v", result)
	}

	record, err := svc.Get(ctx, "cus_fresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Plan != "free" || record.MessageLimit != 10 || record.MessagesUsed != 1 {
		t.Fatalf("unexpected provisioned record: %+v", record)
	}
}

func TestConsumeDeniesPastFreeTierLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := svc.Consume(ctx, "cus_fresh")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	result, err := svc.Consume(ctx, "cus_fresh")
	if err != nil {
		t.Fatalf("consume 11: %v", err)
	}
	if result.Allowed {
		t.Fatalf("11th call must be denied")
	}

	record, err := svc.Get(ctx, "cus_fresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.MessagesUsed != record.MessageLimit {
		t.Fatalf("usage must not exceed the limit: %+v", record)
	}
}

func TestConsumeUnlimitedPlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ApplyPlan(ctx, "cus_premium", plan.Plan{Name: "Premium", MessageLimit: plan.UnlimitedLimit}); err != nil {
		t.Fatalf("apply plan: %v", err)
	}
	for i := 0; i < 25; i++ {
		result, err := svc.Consume(ctx, "cus_premium")
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !result.Allowed || result.Remaining != plan.UnlimitedLimit {
			t.Fatalf("unlimited plan denied at call %d: %+v", i, result)
		}
	}
}

func TestConsumeConcurrentNoOverAdmission(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ApplyPlan(ctx, "cus_race", plan.Plan{Name: "Starter", MessageLimit: 5}); err != nil {
		t.Fatalf("apply plan: %v", err)
	}

	const callers = 20
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Consume(ctx, "cus_race")
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			results <- result.Allowed
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("expected exactly 5 admissions, got %d", allowed)
	}

	record, err := svc.Get(ctx, "cus_race")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.MessagesUsed != 5 {
		t.Fatalf("expected usage 5, got %d", record.MessagesUsed)
	}
}

func TestConsumeRejectsEmptyCustomer(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Consume(context.Background(), "  ")
	if !errors.Is(err, domain.ErrInvalidCustomer) {
		t.Fatalf("expected invalid customer, got %v", err)
	}
}

func TestDowngradeLeavesUsageAboveLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ApplyPlan(ctx, "cus_down", plan.Plan{Name: "Standard", MessageLimit: 200}); err != nil {
		t.Fatalf("apply plan: %v", err)
	}
	for i := 0; i < 8; i++ {
		if _, err := svc.Consume(ctx, "cus_down"); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	record, err := svc.ApplyPlan(ctx, "cus_down", plan.Plan{Name: "Starter", MessageLimit: 5})
	if err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	if record.MessagesUsed != 8 {
		t.Fatalf("downgrade must not clamp usage, got %d", record.MessagesUsed)
	}

	result, err := svc.Consume(ctx, "cus_down")
	if err != nil {
		t.Fatalf("consume after downgrade: %v", err)
	}
	if result.Allowed {
		t.Fatalf("usage above the new limit must be denied")
	}
}
