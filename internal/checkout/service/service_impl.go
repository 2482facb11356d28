package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"go.uber.org/fx"
	"go.uber.org/zap"

	checkoutdomain "github.com/zalingo/billing/internal/checkout/domain"
	"github.com/zalingo/billing/internal/config"
	"github.com/zalingo/billing/internal/observability/metrics"
	"github.com/zalingo/billing/internal/observability/tracing"
)

const remoteCallTimeout = 15 * time.Second

// SessionCreator is the one outbound provider call, kept behind an
// interface so tests can stand in for the remote API.
type SessionCreator interface {
	Create(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewSessionCreator builds the Stripe-backed session creator with a
// traced HTTP client.
func NewSessionCreator(cfg config.Config) SessionCreator {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: tracing.WrapHTTPClient(nil),
	})
	return stripeSessionClient{client: &session.Client{B: backend, Key: cfg.StripeSecretKey}}
}

// stripeSessionClient adapts the stripe-go session client, whose create
// call is named New, to the SessionCreator interface.
type stripeSessionClient struct {
	client *session.Client
}

func (s stripeSessionClient) Create(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.client.New(params)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Cfg      config.Config
	Sessions SessionCreator
	Metrics  *metrics.BillingMetrics
}

type Service struct {
	log      *zap.Logger
	cfg      config.Config
	sessions SessionCreator
	metrics  *metrics.BillingMetrics
}

func NewService(p Params) checkoutdomain.Service {
	return &Service{
		log:      p.Log.Named("checkout.service"),
		cfg:      p.Cfg,
		sessions: p.Sessions,
		metrics:  p.Metrics,
	}
}

func (s *Service) CreateSession(ctx context.Context, req checkoutdomain.CreateSessionRequest) (*checkoutdomain.Session, error) {
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		return nil, checkoutdomain.ErrInvalidPrice
	}

	ctx, cancel := context.WithTimeout(ctx, remoteCallTimeout)
	defer cancel()

	// priceId is mirrored into metadata so the webhook can fall back
	// to it when the event payload omits line items.
	metadata := map[string]string{"priceId": priceID}
	if externalUserID := strings.TrimSpace(req.ExternalUserID); externalUserID != "" {
		metadata["userId"] = externalUserID
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.FrontendURL + "?success=true"),
		CancelURL:  stripe.String(s.cfg.FrontendURL + "?canceled=true"),
		Metadata:   metadata,
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := s.sessions.Create(params)
	s.metrics.IncCheckoutSession(err)
	if err != nil {
		s.log.Warn("checkout session creation failed",
			zap.String("price_id", priceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", checkoutdomain.ErrRemoteSession, providerMessage(err))
	}

	s.log.Info("checkout session created",
		zap.String("price_id", priceID),
		zap.String("session_id", sess.ID),
	)
	return &checkoutdomain.Session{ID: sess.ID, RedirectURL: sess.URL}, nil
}

func providerMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
