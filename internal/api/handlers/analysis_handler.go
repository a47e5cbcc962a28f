package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/intervue/internal/services"
)

type AnalysisHandler struct {
	svc services.AnalysisService
}

func NewAnalysisHandler(svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{svc: svc}
}

// Analyze runs synchronously unless ?async=true, in which case the job is
// queued and 202 is returned.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if err := h.svc.Enqueue(c.Request.Context(), id, userID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "interviewId": id})
		return
	}

	a, err := h.svc.Run(c.Request.Context(), id, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": a})
}

func (h *AnalysisHandler) Raw(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	raw, err := h.svc.Raw(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}
