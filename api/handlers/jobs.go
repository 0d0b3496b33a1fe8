package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anidavtyan/email-reporting-system/interfaces"
)

const defaultJobListLimit = 50

// ListJobs exposes the job table for inspection, dead-lettered jobs included.
func ListJobs(jobs interfaces.ReportJobRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultJobListLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "limit must be a positive integer",
				})
				return
			}
			limit = parsed
		}

		rows, err := jobs.ListRecent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"jobs": rows,
		})
	}
}
