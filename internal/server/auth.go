package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spigell/hh-interviewer/internal/auth"
	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// Browsers cannot set headers on websocket handshakes.
	return c.Query("token")
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := s.deps.Tokens.Lookup(bearerToken(c))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, message("Please log in to continue."))
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.ErrMissingCredentials.Error()})
		return
	}

	err := s.deps.Users.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, auth.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("register failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.ErrMissingCredentials.Error()})
		return
	}

	if err := s.deps.Users.Verify(req.Username, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    s.deps.Tokens.Issue(req.Username),
		"username": req.Username,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.deps.Tokens.Revoke(bearerToken(c))
	s.deps.Coach.Forget(c.GetString(userKey))

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (s *Server) handleCheckAuth(c *gin.Context) {
	user, ok := s.deps.Tokens.Lookup(bearerToken(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "username": user})
}
