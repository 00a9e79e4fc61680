package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studentms/internal/middleware"
	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/service"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
	"github.com/noah-isme/studentms/pkg/response"
)

// AuthHandler exposes the login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Role login
// @Description Authenticates an administrator, lecturer or shared student account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// StudentLogin godoc
// @Summary Student login
// @Description Authenticates a student by email and student code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.StudentLoginRequest true "Student credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/student-login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.auth.StudentLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Me godoc
// @Summary Current principal
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, models.UserInfo{
		Username:    claims.Username,
		Role:        claims.Role,
		DisplayName: claims.Role.DisplayName(),
		StudentID:   claims.StudentID,
	}, nil)
}
