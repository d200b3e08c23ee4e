package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"jobboard/accounts"
	"jobboard/apperr"
	"jobboard/applications"
	"jobboard/jobs"
	"jobboard/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// Handler holds the services behind the HTTP API. Google and Push may be nil
// when those integrations are not configured.
type Handler struct {
	Accounts     *accounts.Service
	Google       *accounts.GoogleAuth
	Jobs         *jobs.Service
	Applications *applications.Service
	Push         *notify.Pusher
	Logger       *zap.Logger
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error", "code"}. Server-side failures are
// logged with their cause; the client only sees the message.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.String("code", string(kind)),
			zap.Error(err),
		}
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Stack != nil {
			fields = append(fields, zap.ByteString("stack", ae.StackTrace()))
		}
		h.Logger.Error("request failed", fields...)
	}
	c.JSON(status, gin.H{
		"error": apperr.MessageOf(err),
		"code":  kind,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  apperr.KindInvalidInput,
	})
}
