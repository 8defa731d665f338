package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVector-it/mythai.github.io/internal/app"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/response"
)

type AdminHandler struct {
	adminService *app.AdminService
}

type SetPlanRequest struct {
	Plan string `json:"plan" binding:"required,max=16"`
}

type AnnouncementRequest struct {
	Text string `json:"text" binding:"max=2000"`
}

func NewAdminHandler(adminService *app.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list users failed")
		return
	}
	response.OK(c, users)
}

func (h *AdminHandler) SetUserPlan(c *gin.Context) {
	var req SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	userID := c.Param("id")
	if err := h.adminService.SetUserPlan(userID, req.Plan); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, plan.ErrUnknownPlan):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "set plan failed")
		}
		return
	}

	response.OK(c, gin.H{"id": userID, "plan": req.Plan})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	userID := c.Param("id")
	if err := h.adminService.DeleteUser(actorID, userID); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrSelfTarget):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete user failed")
		}
		return
	}

	response.OK(c, gin.H{"deleted_user_id": userID})
}

func (h *AdminHandler) SetAnnouncement(c *gin.Context) {
	var req AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.adminService.SetAnnouncement(req.Text); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "set announcement failed")
		return
	}

	response.OK(c, gin.H{"announcement": req.Text})
}
