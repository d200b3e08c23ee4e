package handlers

import (
	"net/http"

	"jobboard/middleware"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetVapidPublicKey(c *gin.Context) {
	if h.Push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.Push.PublicKey()})
}

func (h *Handler) SubscribePush(c *gin.Context) {
	if h.Push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications not configured"})
		return
	}
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sub := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys:     webpush.Keys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
	}
	if err := h.Push.Subscribe(ctx, middleware.Session(c), sub); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved successfully"})
}
