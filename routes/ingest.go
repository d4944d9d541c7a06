package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"talent-match-platform/internal/logger"
	"talent-match-platform/internal/queue"
	"talent-match-platform/models"
	"talent-match-platform/services"
	"talent-match-platform/utils"
)

type jobRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	Requirements   string   `json:"requirements"`
	SkillsRequired []string `json:"skills_required"`
	IsActive       *bool    `json:"is_active"`
}

type resumeRequest struct {
	CandidateName string `json:"candidate_name" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// SetupIngestRoutes wires job and resume ingestion. Writes enqueue
// embedding work; the request path never blocks on the model.
func SetupIngestRoutes(router *gin.Engine, docs *services.DocumentStore, client *asynq.Client) {
	api := router.Group("/api/v1")

	api.POST("/jobs", func(c *gin.Context) {
		var req jobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid job payload", err.Error())
			return
		}

		job := &models.Job{
			Title:          req.Title,
			Description:    req.Description,
			Requirements:   req.Requirements,
			SkillsRequired: req.SkillsRequired,
			IsActive:       true,
		}
		if req.IsActive != nil {
			job.IsActive = *req.IsActive
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()
		if err := docs.SaveJob(ctx, job); err != nil {
			logger.Error("Failed to save job", "error", err)
			utils.RespondWithInternalError(c, "Failed to save job", nil)
			return
		}

		enqueueEmbedJob(c, client, job.ID)
		c.JSON(http.StatusCreated, job)
	})

	api.GET("/jobs", func(c *gin.Context) {
		activeOnly := c.Query("active") == "true"

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()
		jobs, err := docs.ListJobs(ctx, activeOnly, 100)
		if err != nil {
			logger.Error("Failed to list jobs", "error", err)
			utils.RespondWithInternalError(c, "Failed to list jobs", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
	})

	api.GET("/jobs/:id", func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		job, err := docs.GetJob(ctx, c.Param("id"))
		if err == services.ErrNotFound {
			utils.RespondWithNotFound(c, "Job not found")
			return
		}
		if err != nil {
			logger.Error("Failed to get job", "job_id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to get job", nil)
			return
		}
		c.JSON(http.StatusOK, job)
	})

	api.PATCH("/jobs/:id/active", func(c *gin.Context) {
		var req struct {
			IsActive *bool `json:"is_active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "is_active is required", err.Error())
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()
		err := docs.SetJobActive(ctx, c.Param("id"), *req.IsActive)
		if err == services.ErrNotFound {
			utils.RespondWithNotFound(c, "Job not found")
			return
		}
		if err != nil {
			logger.Error("Failed to update job", "job_id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to update job", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "is_active": *req.IsActive})
	})

	api.POST("/resumes", func(c *gin.Context) {
		var req resumeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid resume payload", err.Error())
			return
		}

		resume := &models.Resume{
			CandidateName: req.CandidateName,
			Content:       req.Content,
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()
		if err := docs.SaveResume(ctx, resume); err != nil {
			logger.Error("Failed to save resume", "error", err)
			utils.RespondWithInternalError(c, "Failed to save resume", nil)
			return
		}

		task, err := queue.NewEmbedResumeTask(resume.ID, true)
		if err == nil {
			_, err = client.EnqueueContext(c.Request.Context(), task)
		}
		if err != nil {
			// Ingestion succeeded; the backfill sweep picks the resume up.
			logger.Error("Failed to enqueue resume embedding", "resume_id", resume.ID, "error", err)
		}

		c.JSON(http.StatusCreated, gin.H{"id": resume.ID, "candidate_name": resume.CandidateName})
	})

	api.GET("/resumes/:id", func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		resume, err := docs.GetResume(ctx, c.Param("id"))
		if err == services.ErrNotFound {
			utils.RespondWithNotFound(c, "Resume not found")
			return
		}
		if err != nil {
			logger.Error("Failed to get resume", "resume_id", c.Param("id"), "error", err)
			utils.RespondWithInternalError(c, "Failed to get resume", nil)
			return
		}
		c.JSON(http.StatusOK, resume)
	})
}

func enqueueEmbedJob(c *gin.Context, client *asynq.Client, jobID string) {
	task, err := queue.NewEmbedJobTask(jobID)
	if err == nil {
		_, err = client.EnqueueContext(c.Request.Context(), task)
	}
	if err != nil {
		logger.Error("Failed to enqueue job embedding", "job_id", jobID, "error", err)
	}
}
