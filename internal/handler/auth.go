package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"WildVoice/internal/models"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/middleware"
	"WildVoice/pkg/response"
)

type RegisterUserForm struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password" binding:"required,min=8"`
}

type LoginForm struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleUserSignup(c *gin.Context) {
	var form RegisterUserForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, 1, "invalid register form")
		return
	}

	email := strings.ToLower(strings.TrimSpace(form.Email))
	if _, err := models.GetUserByEmail(h.db, email); err == nil {
		response.FailWithStatus(c, http.StatusConflict, 1, "email already registered")
		return
	}

	user, err := models.CreateUser(h.db, email, form.DisplayName, form.Password)
	if err != nil {
		logger.Error("create user failed", zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, 1, "failed to create user")
		return
	}

	if err := middleware.Login(c, user.ID); err != nil {
		logger.Warn("save session failed", zap.Error(err))
	}
	response.Created(c, "user registered", user)
}

func (h *Handlers) handleUserSignin(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, 1, "invalid login form")
		return
	}

	user, err := models.GetUserByEmail(h.db, strings.ToLower(strings.TrimSpace(form.Email)))
	if err != nil || !user.CheckPassword(form.Password) {
		if err != nil && err != gorm.ErrRecordNotFound {
			logger.Error("load user failed", zap.Error(err))
		}
		response.FailWithStatus(c, http.StatusUnauthorized, 1, "invalid email or password")
		return
	}

	if err := middleware.Login(c, user.ID); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, 1, "failed to save session")
		return
	}
	response.Success(c, "login success", user)
}

func (h *Handlers) handleUserLogout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, 1, "failed to clear session")
		return
	}
	response.Success(c, "logout success", nil)
}

func (h *Handlers) handleUserInfo(c *gin.Context) {
	response.Success(c, "current user", models.CurrentUser(c))
}
