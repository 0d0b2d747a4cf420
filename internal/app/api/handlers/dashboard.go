package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/subdash/subdash/internal/app/service/statistics"
	"github.com/subdash/subdash/pkg/response"
)

// @Summary      Dashboard metrics
// @Description  Derived revenue, active-subscription, churn and failed-payment aggregates.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  statistics.DashboardMetrics
// @Router       /api/dashboard/metrics [get]
func ApiDashboardMetrics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics, err := svc.DashboardMetrics(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		// Plain object, not the envelope: dashboard widgets read these
		// fields directly.
		c.JSON(http.StatusOK, metrics)
	}
}

func RegisterDashboardRoutes(r gin.IRouter, svc *statistics.Service) {
	r.GET("/dashboard/metrics", ApiDashboardMetrics(svc))
}
