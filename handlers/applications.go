package handlers

import (
	"net/http"

	"jobboard/applications"
	"jobboard/middleware"

	"github.com/gin-gonic/gin"
)

const maxResumeSize = 10 << 20

// SubmitApplication takes a multipart form with job_id and a resume file.
func (h *Handler) SubmitApplication(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeSize+1<<20)
	if err := c.Request.ParseMultipartForm(maxResumeSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
		return
	}

	in := applications.SubmitInput{JobID: c.PostForm("job_id")}
	if file, _, err := c.Request.FormFile("resume"); err == nil {
		defer file.Close()
		in.Resume = file
	}

	app, err := h.Applications.Submit(ctx, middleware.Session(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Application submitted",
		"application": app,
	})
}

func (h *Handler) MyApplications(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.Applications.ListMine(ctx, middleware.Session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *Handler) JobApplications(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	apps, err := h.Applications.ListForJob(ctx, middleware.Session(c), c.Param("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}
