package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"talent-match-platform/internal/ai"
	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/queue"
	"talent-match-platform/models"
	"talent-match-platform/services"
	"talent-match-platform/utils"
)

type triggerRequest struct {
	JobID    string `json:"job_id" binding:"required"`
	ResumeID string `json:"resume_id"`
}

type statusRequest struct {
	Status    string `json:"status" binding:"required"`
	UpdatedBy string `json:"updated_by"`
}

// SetupMatchRoutes wires the matching API: trigger runs, read rankings,
// and move results through the review lifecycle.
func SetupMatchRoutes(
	router *gin.Engine,
	matches *services.MatchStore,
	engine *services.MatchingEngine,
	embedder *ai.Embedder,
	client *asynq.Client,
) {
	api := router.Group("/api/v1")

	// Single-pair runs are computed inline; whole-job runs go through the
	// queue so the HTTP path stays bounded.
	api.POST("/match/trigger", func(c *gin.Context) {
		var req triggerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "job_id is required", err.Error())
			return
		}

		if req.ResumeID != "" {
			ctx, cancel := utils.WithLongTimeout(c.Request.Context())
			defer cancel()

			result, err := engine.MatchPair(ctx, req.JobID, req.ResumeID)
			if err == services.ErrNotFound {
				utils.RespondWithNotFound(c, "Job or resume not found")
				return
			}
			if err != nil {
				logger.Error("Match failed", "job_id", req.JobID, "resume_id", req.ResumeID, "error", err)
				utils.RespondWithError(c, http.StatusUnprocessableEntity, "match_failed", err.Error(), nil)
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}

		task, err := queue.NewMatchJobTask(req.JobID)
		if err == nil {
			_, err = client.EnqueueContext(c.Request.Context(), task)
		}
		if err != nil {
			logger.Error("Failed to enqueue match run", "job_id", req.JobID, "error", err)
			utils.RespondWithInternalError(c, "Failed to enqueue match run", nil)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": req.JobID, "status": "queued"})
	})

	api.GET("/match/jobs/:job_id/results", func(c *gin.Context) {
		opt := services.ListOptions{Status: c.Query("status")}
		if v := c.Query("min_score"); v != "" {
			minScore, err := strconv.Atoi(v)
			if err != nil || minScore < 0 || minScore > 100 {
				utils.RespondWithBadRequest(c, "min_score must be an integer in [0,100]", nil)
				return
			}
			opt.MinScore = minScore
		}
		if v := c.Query("max_results"); v != "" {
			maxResults, err := strconv.ParseInt(v, 10, 64)
			if err != nil || maxResults < 1 {
				utils.RespondWithBadRequest(c, "max_results must be a positive integer", nil)
				return
			}
			opt.MaxResults = maxResults
		}
		if opt.Status != "" && !models.ValidStatus(opt.Status) {
			utils.RespondWithBadRequest(c, "Unknown status filter", gin.H{"status": opt.Status})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		results, err := matches.ListByJob(ctx, c.Param("job_id"), opt)
		if err != nil {
			logger.Error("Failed to list match results", "job_id", c.Param("job_id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to list match results", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"job_id": c.Param("job_id"), "results": results, "count": len(results)})
	})

	api.GET("/match/jobs/:job_id/stats", func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		stats, err := matches.StatsByJob(ctx, c.Param("job_id"))
		if err != nil {
			logger.Error("Failed to compute match stats", "job_id", c.Param("job_id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to compute match stats", nil)
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	api.GET("/match/results/:id", func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		result, err := matches.GetByID(ctx, c.Param("id"))
		if err == services.ErrNotFound {
			utils.RespondWithNotFound(c, "Match result not found")
			return
		}
		if err != nil {
			logger.Error("Failed to get match result", "id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to get match result", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"result":             result,
			"scheduling_allowed": result.SchedulingAllowed(),
		})
	})

	api.PATCH("/match/results/:id/status", func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "status is required", err.Error())
			return
		}
		if !models.ValidStatus(req.Status) {
			utils.RespondWithBadRequest(c, "Unknown status", gin.H{
				"status":  req.Status,
				"allowed": []string{models.StatusPending, models.StatusShortlisted, models.StatusRejected, models.StatusMaybe},
			})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		result, err := matches.UpdateStatus(ctx, c.Param("id"), req.Status, req.UpdatedBy)
		if err == services.ErrNotFound {
			utils.RespondWithNotFound(c, "Match result not found")
			return
		}
		if err != nil {
			logger.Error("Failed to update match status", "id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to update match status", nil)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.GET("/health/embeddings", func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		status := embedder.HealthCheck(ctx)
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}
