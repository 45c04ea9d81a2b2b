package api

import (
	"net/http"

	apimodels "lightsms-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct{}

func NewPricingHandler() *PricingHandler {
	return &PricingHandler{}
}

var pricingPlans = []apimodels.PricingPlan{
	{
		ID:          "basic",
		Name:        "Basic",
		Price:       29,
		Description: "For small campaigns and testing the waters",
		Features: []string{
			"1,000 messages per month",
			"CSV contact import",
			"Message personalization",
			"Delivery tracking",
		},
	},
	{
		ID:          "pro",
		Name:        "Pro",
		Price:       79,
		Description: "For growing businesses running regular campaigns",
		Features: []string{
			"2,000 messages per month",
			"Everything in Basic",
			"Scheduled campaigns",
			"Reply tracking with sentiment",
			"Message suggestions",
		},
	},
	{
		ID:          "enterprise",
		Name:        "Enterprise",
		Price:       199,
		Description: "For high-volume senders",
		Features: []string{
			"4,000 messages per month",
			"Everything in Pro",
			"Optimal send-time prediction",
			"Priority support",
		},
	},
}

// Plans returns the subscription tiers
func (h *PricingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, pricingPlans)
}
