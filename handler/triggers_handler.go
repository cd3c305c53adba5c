package handler

import (
	"context"
	"log"

	"lifeloop/usecase"
	"lifeloop/utils"

	"github.com/gin-gonic/gin"
)

// TriggerHandler exposes the scheduled jobs to the external time trigger.
type TriggerHandler struct {
	resets    *usecase.ResetService
	analytics *usecase.AnalyticsService
}

func NewTriggerHandler(resets *usecase.ResetService, analytics *usecase.AnalyticsService) *TriggerHandler {
	return &TriggerHandler{resets: resets, analytics: analytics}
}

type job func(ctx context.Context) (*usecase.Summary, error)

func (h *TriggerHandler) run(c *gin.Context, name string, fn job) {
	log.Printf("Trigger %s received (request_id=%s)", name, c.GetString("request_id"))

	// A sweep outlives a dropped trigger connection; server shutdown still
	// bounds it.
	summary, err := fn(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if summary != nil {
			utils.Error(c, err, summary)
			return
		}
		utils.Error(c, err)
		return
	}
	utils.Success(c, summary)
}

func (h *TriggerHandler) ResetDaily(c *gin.Context) {
	h.run(c, "reset_daily", h.resets.ResetDaily)
}

func (h *TriggerHandler) ResetWeekly(c *gin.Context) {
	h.run(c, "reset_weekly", h.resets.ResetWeekly)
}

func (h *TriggerHandler) ResetMonthly(c *gin.Context) {
	h.run(c, "reset_monthly", h.resets.ResetMonthly)
}

func (h *TriggerHandler) ResetDailyAnalytics(c *gin.Context) {
	h.run(c, "analytics_daily", h.analytics.ResetDailyAnalytics)
}

func (h *TriggerHandler) ResetWeeklyAnalytics(c *gin.Context) {
	h.run(c, "analytics_weekly", h.analytics.ResetWeeklyAnalytics)
}

func (h *TriggerHandler) ResetMonthlyAnalytics(c *gin.Context) {
	h.run(c, "analytics_monthly", h.analytics.ResetMonthlyAnalytics)
}

func (h *TriggerHandler) ResetYearlyAnalytics(c *gin.Context) {
	h.run(c, "analytics_yearly", h.analytics.ResetYearlyAnalytics)
}
