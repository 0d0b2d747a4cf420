package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/app/service/realtime"
)

func TestRegisterRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api")

	RegisterPlanRoutes(g, nil)
	RegisterSubscriptionRoutes(g, nil)
	RegisterPaymentIssueRoutes(g, nil)
	RegisterDashboardRoutes(g, nil)
	RegisterCheckoutRoutes(g, nil, nil, nil)
	RegisterWebhookRoutes(g, nil)
	RegisterRealtimeRoutes(g, nil, realtime.NewHub(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	RegisterHealthRoutes(r)

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("GET /api/subscription-plans"))
	require.True(t, contains("POST /api/subscription-plans"))
	require.True(t, contains("PUT /api/subscription-plans/:id"))
	require.True(t, contains("DELETE /api/subscription-plans/:id"))
	require.True(t, contains("GET /api/subscriptions"))
	require.True(t, contains("GET /api/subscriptions/recent"))
	require.True(t, contains("GET /api/payment-issues"))
	require.True(t, contains("POST /api/payment-issues/:id/resolve"))
	require.True(t, contains("GET /api/dashboard/metrics"))
	require.True(t, contains("POST /api/create-payment-intent"))
	require.True(t, contains("POST /api/create-subscription"))
	require.True(t, contains("POST /api/stripe/webhook"))
	require.True(t, contains("GET /api/ws"))
	require.True(t, contains("GET /api/realtime/status"))
	require.True(t, contains("GET /healthz"))
}
