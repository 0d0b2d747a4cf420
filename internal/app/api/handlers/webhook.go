package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/app/service/reconciler"
	stripeclient "github.com/subdash/subdash/internal/platform/stripe"
	"github.com/subdash/subdash/pkg/logctx"
)

// Webhook bodies are small; cap reads to keep a hostile peer from streaming.
const maxWebhookBody = 65536

// WebhookHandler is the event ingress: it authenticates and parses processor
// notifications and hands them to the reconciler. It performs no state
// mutation itself.
type WebhookHandler struct {
	stripeClient *stripeclient.Client
	reconciler   *reconciler.Service
	Logger       *zap.SugaredLogger
}

func NewWebhookHandler(sc *stripeclient.Client, rec *reconciler.Service, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{stripeClient: sc, reconciler: rec, Logger: log}
}

// @Summary      Stripe webhook
// @Description  Receives signed Stripe event notifications. The body must be
// @Description  the raw bytes Stripe sent so the signature can be verified.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/stripe/webhook [post]
func ApiStripeWebhook(h *WebhookHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.String(http.StatusBadRequest, "read body")
			return
		}

		var event stripe.Event
		if h.stripeClient.SigningConfigured() {
			event, err = h.stripeClient.ConstructWebhookEvent(body, c.GetHeader("Stripe-Signature"))
			if err != nil {
				log.Warnw("webhook signature verification failed", "err", err)
				c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
				return
			}
		} else {
			// No signing secret configured: accept unsigned JSON. Development
			// convenience only.
			if err := json.Unmarshal(body, &event); err != nil {
				log.Warnw("webhook parse failed", "err", err)
				c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
				return
			}
		}

		if err := h.reconciler.Handle(c.Request.Context(), event); err != nil {
			if errors.Is(err, reconciler.ErrInvalidPayload) {
				log.Warnw("webhook payload rejected", "type", event.Type, "err", err)
				c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
				return
			}
			log.Errorw("webhook processing failed", "type", event.Type, "err", err)
			c.String(http.StatusInternalServerError, "Webhook processing failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *WebhookHandler) {
	r.POST("/stripe/webhook", ApiStripeWebhook(h))
}
