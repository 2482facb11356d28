package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/zalingo/billing/internal/checkout/domain"
)

type createCheckoutSessionRequest struct {
	PriceID        string `json:"priceId"`
	CustomerEmail  string `json:"customerEmail"`
	ExternalUserID string `json:"externalUserId"`
}

// CreateCheckoutSession starts a hosted checkout for a known price and
// returns the provider redirect URL.
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	if !s.checkoutLimiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req createCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		AbortWithError(c, newValidationError("priceId", "required", "priceId is required"))
		return
	}

	session, err := s.checkoutSvc.CreateSession(c.Request.Context(), checkoutdomain.CreateSessionRequest{
		PriceID:        priceID,
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		ExternalUserID: strings.TrimSpace(req.ExternalUserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirectUrl": session.RedirectURL})
}
