package handlers

import (
	"net/http"

	"jobboard/accounts"
	"jobboard/middleware"
	"jobboard/models"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func authResponse(res accounts.Authenticated, message string) gin.H {
	return gin.H{
		"message": message,
		"token":   res.Token,
		"userId":  res.Account.AccountID,
		"email":   res.Account.Email,
		"role":    res.Account.Role,
		"profile": models.NewAccountDocument(res.Account),
		"isNew":   res.IsNew,
		"expires": res.Session.ExpiresAt.Unix(),
	}
}

func (h *Handler) Signup(c *gin.Context) {
	var req accounts.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Accounts.SignUp(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse(res, "User created successfully"))
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(res, "Login successful"))
}

func (h *Handler) Logout(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Accounts.SignOut(ctx, middleware.Session(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
