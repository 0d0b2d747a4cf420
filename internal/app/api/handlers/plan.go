package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	plansvc "github.com/subdash/subdash/internal/app/service/plan"
	"github.com/subdash/subdash/pkg/response"
)

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid id"))
		return 0, false
	}
	return uint(id), true
}

// @Summary      List subscription plans
// @Description  Returns all active (non-deleted) subscription plans.
// @Tags         Plans
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription-plans [get]
func ApiListPlans(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}

// @Summary      Create subscription plan
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        plan body plan.CreateRequest true "Plan definition"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription-plans [post]
func ApiCreatePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req plansvc.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		created, err := svc.Create(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(created))
	}
}

// @Summary      Update subscription plan
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Param        id   path int true "Plan ID"
// @Param        plan body plan.Patch true "Fields to update"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription-plans/{id} [put]
func ApiUpdatePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var patch plansvc.Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		updated, err := svc.Update(c.Request.Context(), id, &patch)
		if err != nil {
			if errors.Is(err, plansvc.ErrPlanNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "Plan not found"))
				return
			}
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(updated))
	}
}

// @Summary      Delete subscription plan
// @Description  Soft-deletes the plan; historical subscriptions keep their reference.
// @Tags         Plans
// @Produce      json
// @Param        id path int true "Plan ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/subscription-plans/{id} [delete]
func ApiDeletePlan(svc *plansvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.SoftDelete(c.Request.Context(), id); err != nil {
			if errors.Is(err, plansvc.ErrPlanNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "Plan not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]bool{"success": true}))
	}
}

func RegisterPlanRoutes(r gin.IRouter, svc *plansvc.Service) {
	r.GET("/subscription-plans", ApiListPlans(svc))
	r.POST("/subscription-plans", ApiCreatePlan(svc))
	r.PUT("/subscription-plans/:id", ApiUpdatePlan(svc))
	r.DELETE("/subscription-plans/:id", ApiDeletePlan(svc))
}
