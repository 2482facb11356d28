package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	obscontext "github.com/zalingo/billing/internal/observability/context"
)

// GetEntitlement returns the stored entitlement for a customer. It
// never provisions; unknown customers are 404.
func (s *Server) GetEntitlement(c *gin.Context) {
	customerID := obscontext.CustomerIDFromGin(c)
	ctx := obscontext.WithCustomerID(c.Request.Context(), customerID)

	record, err := s.entitlementSvc.Get(ctx, customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customerId":   record.CustomerID,
		"plan":         record.Plan,
		"messageLimit": record.MessageLimit,
		"messagesUsed": record.MessagesUsed,
	})
}

// ConsumeEntitlement attempts to spend one message. First-time callers
// are provisioned on the free tier before the attempt.
func (s *Server) ConsumeEntitlement(c *gin.Context) {
	customerID := obscontext.CustomerIDFromGin(c)
	ctx := obscontext.WithCustomerID(c.Request.Context(), customerID)

	result, err := s.entitlementSvc.Consume(ctx, customerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":   result.Allowed,
		"remaining": result.Remaining,
	})
}
