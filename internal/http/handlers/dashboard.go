package handlers

import (
	"net/http"

	"estatehub/internal/http/middleware"
	"estatehub/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/dashboard/summary
func DashboardSummary(c *gin.Context) {
	rc, ok := requestUser(c)
	if !ok {
		return
	}
	svc := services.DashboardService{RequestID: middleware.GetRequestID(c)}
	sum, err := svc.Summary(c.Request.Context(), rc.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
