package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/governance/audit"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/service"
)

// sessionResponse is returned by signup and login.
type sessionResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
}

// GetCurrentUser handles GET /auth/me. Anonymous callers get null.
func (s *Server) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		c.JSON(http.StatusOK, nil)
		return
	}

	user, err := s.auth.Me(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout handles POST /auth/logout.
func (s *Server) Logout(c *gin.Context) {
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, successResponse{Success: true})
}

// Signup handles POST /auth/signup.
func (s *Server) Signup(c *gin.Context) {
	var req service.SignupRequest
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.auth.Signup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionUserSignup, audit.ResourceTypeUser, strconv.FormatInt(user.ID, 10), user.ID, nil)
	s.startSession(c, user)
}

// Login handles POST /auth/login.
func (s *Server) Login(c *gin.Context) {
	var req service.LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.auth.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionUserLogin, audit.ResourceTypeUser, strconv.FormatInt(user.ID, 10), user.ID, nil)
	s.startSession(c, user)
}

func (s *Server) startSession(c *gin.Context, user *domain.User) {
	token, _, err := middleware.GenerateToken(s.jwtCfg, user)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error("failed to generate token", zap.Error(err))
		fail(c, apperrors.Wrap(err, apperrors.CodeInternal, "failed to issue session", http.StatusInternalServerError))
		return
	}
	s.setSessionCookie(c, token)
	c.JSON(http.StatusOK, sessionResponse{Success: true, User: user, Token: token})
}
