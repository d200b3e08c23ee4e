package handlers

import (
	"net/http"

	"jobboard/jobs"
	"jobboard/middleware"

	"github.com/gin-gonic/gin"
)

// ListJobs is the public board: approved, unexpired postings with company
// details, narrowed by the q, industry, location, salary and experience
// query parameters.
func (h *Handler) ListJobs(c *gin.Context) {
	var filter jobs.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	listings, err := h.Jobs.ListPublic(ctx, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": listings, "count": len(listings)})
}

func (h *Handler) GetJob(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	listing, err := h.Jobs.GetPublic(ctx, c.Param("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req jobs.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.Jobs.Create(ctx, middleware.Session(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Job submitted for review",
		"job":     job,
	})
}

func (h *Handler) EditJob(c *gin.Context) {
	var req jobs.EditInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.Jobs.Edit(ctx, middleware.Session(c), c.Param("jobId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Job updated and sent for review",
		"job":     job,
	})
}

func (h *Handler) ListEmployerJobs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	dash, err := h.Jobs.ListForEmployer(ctx, middleware.Session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) AdminListJobs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	queue, err := h.Jobs.ListForReview(ctx, middleware.Session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *Handler) ApproveJob(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.Jobs.Approve(ctx, middleware.Session(c), c.Param("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job approved", "job": job})
}

func (h *Handler) UnapproveJob(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.Jobs.Unapprove(ctx, middleware.Session(c), c.Param("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job moved back to pending", "job": job})
}
