package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	issuesvc "github.com/subdash/subdash/internal/app/service/paymentissue"
	"github.com/subdash/subdash/pkg/response"
)

// @Summary      List payment issues
// @Tags         PaymentIssues
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/payment-issues [get]
func ApiListPaymentIssues(svc *issuesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(issues))
	}
}

// @Summary      Resolve payment issue
// @Description  Marks the issue resolved with a resolution timestamp.
// @Tags         PaymentIssues
// @Produce      json
// @Param        id path int true "Payment issue ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/payment-issues/{id}/resolve [post]
func ApiResolvePaymentIssue(svc *issuesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		issue, err := svc.Resolve(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, issuesvc.ErrIssueNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "Payment issue not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(issue))
	}
}

func RegisterPaymentIssueRoutes(r gin.IRouter, svc *issuesvc.Service) {
	r.GET("/payment-issues", ApiListPaymentIssues(svc))
	r.POST("/payment-issues/:id/resolve", ApiResolvePaymentIssue(svc))
}
