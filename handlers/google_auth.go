package handlers

import (
	"net/http"

	"jobboard/accounts"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GoogleAuthRequest struct {
	Credential string `json:"credential" binding:"required"`
}

func (h *Handler) googleConfigured(c *gin.Context) bool {
	if h.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return false
	}
	return true
}

// GetGoogleAuthURL starts the redirect-based OAuth flow.
func (h *Handler) GetGoogleAuthURL(c *gin.Context) {
	if !h.googleConfigured(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.Google.AuthURL(uuid.NewString())})
}

func (h *Handler) GoogleOAuthCallback(c *gin.Context) {
	if !h.googleConfigured(c) {
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	gu, err := h.Google.Exchange(ctx, code)
	if err != nil {
		h.Logger.Warn("google oauth exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to exchange authorization code"})
		return
	}
	h.googleSignIn(c, gu)
}

// GoogleAuthWithCredential signs in with a Google Identity Services credential.
func (h *Handler) GoogleAuthWithCredential(c *gin.Context) {
	if !h.googleConfigured(c) {
		return
	}
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	gu, err := h.Google.VerifyCredential(ctx, req.Credential)
	if err != nil {
		h.Logger.Warn("google credential rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google credential"})
		return
	}
	h.googleSignIn(c, gu)
}

func (h *Handler) googleSignIn(c *gin.Context, gu accounts.GoogleUser) {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Accounts.GoogleSignIn(ctx, gu)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(res, "Authentication successful"))
}
