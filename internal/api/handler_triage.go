package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospital-access-backend/internal/errs"
)

type triageRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

// Triage handles POST /api/v1/triage. The classifier is advisory: when it
// is unavailable the handler still answers with the moderate-urgency
// fallback rather than failing the request.
func (h *Handler) Triage(c *gin.Context) {
	var req triageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errs.Validation("symptoms text is required"))
		return
	}

	result, err := h.triage.Classify(c.Request.Context(), req.Symptoms)
	if err != nil {
		if errs.Is(err, errs.KindDependencyUnavailable) {
			c.JSON(http.StatusOK, result)
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
