package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anidavtyan/email-reporting-system/services/scheduler"
)

// TriggerSweep runs a report scheduling sweep on demand. The sweep is
// idempotent, so triggering it repeatedly is safe.
func TriggerSweep(s *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcomes, err := s.ScheduleDailyReports(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
			})
			return
		}

		type outcomeView struct {
			RecipientID string `json:"recipientId"`
			ReportDate  string `json:"reportDate"`
			JobKey      string `json:"jobKey"`
			Enqueued    bool   `json:"enqueued"`
			Error       string `json:"error,omitempty"`
		}

		views := make([]outcomeView, 0, len(outcomes))
		for _, outcome := range outcomes {
			view := outcomeView{
				RecipientID: outcome.RecipientID,
				ReportDate:  outcome.ReportDate,
				JobKey:      outcome.JobKey,
				Enqueued:    outcome.Enqueued,
			}
			if outcome.Err != nil {
				view.Error = outcome.Err.Error()
			}
			views = append(views, view)
		}

		c.JSON(http.StatusOK, gin.H{
			"outcomes": views,
		})
	}
}
