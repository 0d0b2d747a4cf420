package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	subsvc "github.com/subdash/subdash/internal/app/service/subscription"
	"github.com/subdash/subdash/pkg/response"
)

const recentSubscriptionLimit = 5

// @Summary      List subscriptions
// @Description  Returns all subscriptions with their user and plan.
// @Tags         Subscriptions
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscriptions [get]
func ApiListSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subs))
	}
}

// @Summary      Recent subscriptions
// @Description  Returns the five most recently created subscriptions.
// @Tags         Subscriptions
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscriptions/recent [get]
func ApiRecentSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := svc.Recent(c.Request.Context(), recentSubscriptionLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subs))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subsvc.Service) {
	r.GET("/subscriptions", ApiListSubscriptions(svc))
	r.GET("/subscriptions/recent", ApiRecentSubscriptions(svc))
}
