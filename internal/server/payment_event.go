package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zalingo/billing/internal/observability/logger"
	paymentdomain "github.com/zalingo/billing/internal/payment/domain"
)

const maxWebhookBody = 1 << 20

// HandlePaymentEvent ingests a provider webhook delivery. Rejections
// return 400 so the provider drops the delivery; anything transient
// returns 503 so it retries.
func (s *Server) HandlePaymentEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.paymentSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		if isWebhookRejection(err) {
			AbortWithError(c, err)
			return
		}
		logger.FromContext(c.Request.Context()).Warn("payment event deferred",
			zap.Error(err),
		)
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func isWebhookRejection(err error) bool {
	return errors.Is(err, paymentdomain.ErrInvalidSignature) ||
		errors.Is(err, paymentdomain.ErrInvalidPayload) ||
		errors.Is(err, paymentdomain.ErrInvalidEvent)
}
