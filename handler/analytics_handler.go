package handler

import (
	"lifeloop/usecase"
	"lifeloop/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *usecase.AnalyticsService
}

func NewAnalyticsHandler(analytics *usecase.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	doc, err := h.analytics.Get(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, doc)
}

// Rebuild re-derives the caller's analytics from their event log
func (h *AnalyticsHandler) Rebuild(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	doc, err := h.analytics.Rebuild(c.Request.Context(), userID)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Accepted(c, "Analytics rebuilt from event log", doc)
}
