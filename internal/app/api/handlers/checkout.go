package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	plansvc "github.com/subdash/subdash/internal/app/service/plan"
	subsvc "github.com/subdash/subdash/internal/app/service/subscription"
	"github.com/subdash/subdash/internal/models"
	stripeclient "github.com/subdash/subdash/internal/platform/stripe"
	"github.com/subdash/subdash/pkg/response"
	"github.com/subdash/subdash/pkg/types"
)

type createPaymentIntentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

type createPaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// @Summary      Create payment intent
// @Description  Creates a one-time payment intent for the given amount in major currency units.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body handlers.createPaymentIntentRequest true "Amount"
// @Success      200  {object}  handlers.createPaymentIntentResponse
// @Router       /api/create-payment-intent [post]
func ApiCreatePaymentIntent(sc *stripeclient.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		secret, err := sc.CreatePaymentIntent(int64(math.Round(req.Amount*100)), "usd")
		if err != nil {
			if errors.Is(err, stripeclient.ErrNotConfigured) {
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "Stripe not configured"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, createPaymentIntentResponse{ClientSecret: secret})
	}
}

type createSubscriptionRequest struct {
	PlanID uint   `json:"planId" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
}

type createSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

// @Summary      Subscribe to a plan
// @Description  Creates the Stripe customer and subscription for a plan and a
// @Description  matching local trial subscription, returning the client secret
// @Description  needed to confirm the first payment.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body handlers.createSubscriptionRequest true "Plan and customer"
// @Success      200  {object}  handlers.createSubscriptionResponse
// @Router       /api/create-subscription [post]
func ApiCreateSubscription(sc *stripeclient.Client, plans *plansvc.Service, subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		ctx := c.Request.Context()

		plan, err := plans.Get(ctx, req.PlanID)
		if err != nil || plan.StripePriceID == nil || *plan.StripePriceID == "" {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest,
				"Invalid plan or Stripe price not configured"))
			return
		}

		user, err := subs.FindOrCreateUser(ctx, req.Email, req.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		customerID, err := sc.CreateCustomer(req.Email, req.Name)
		if err != nil {
			if errors.Is(err, stripeclient.ErrNotConfigured) {
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "Stripe not configured"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		subscriptionID, clientSecret, err := sc.CreateSubscription(customerID, *plan.StripePriceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		if err := subs.SetUserStripeInfo(ctx, user.ID, customerID, subscriptionID); err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		if _, err := subs.Create(ctx, &models.Subscription{
			UserID:               user.ID,
			PlanID:               plan.ID,
			Status:               types.SubscriptionStatusTrial,
			StripeSubscriptionID: &subscriptionID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		c.JSON(http.StatusOK, createSubscriptionResponse{
			SubscriptionID: subscriptionID,
			ClientSecret:   clientSecret,
		})
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, sc *stripeclient.Client, plans *plansvc.Service, subs *subsvc.Service) {
	r.POST("/create-payment-intent", ApiCreatePaymentIntent(sc))
	r.POST("/create-subscription", ApiCreateSubscription(sc, plans, subs))
}
