package handlers

import (
	"net/http"

	"jobboard/accounts"
	"jobboard/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetMyProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	doc, err := h.Accounts.Get(ctx, middleware.Session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var req accounts.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	doc, err := h.Accounts.UpdateProfile(ctx, middleware.Session(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"profile": doc,
	})
}

// GetCompany returns an employer's public profile.
func (h *Handler) GetCompany(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	emp, err := h.Accounts.CompanyByID(ctx, c.Param("companyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emp)
}

// AdminListUsers backs the admin users view.
func (h *Handler) AdminListUsers(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Accounts.ListAccounts(ctx, middleware.Session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
