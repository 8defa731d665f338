package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DEVector-it/mythai.github.io/internal/app"
	"github.com/DEVector-it/mythai.github.io/internal/transport/http/response"
)

type AccountHandler struct {
	accountService *app.AccountService
}

func NewAccountHandler(accountService *app.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Status(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	status, err := h.accountService.Status(userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch status failed")
		}
		return
	}

	response.OK(c, gin.H{
		"logged_in":     true,
		"user":          status.User,
		"message_limit": status.MessageLimit,
		"models":        status.Models,
		"announcement":  status.Announcement,
	})
}

func (h *AccountHandler) Upgrade(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	user, err := h.accountService.Upgrade(userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upgrade failed")
		}
		return
	}

	response.OK(c, gin.H{"user": user})
}
