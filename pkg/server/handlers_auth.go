package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openboard/openboard/pkg/auth"
	"github.com/openboard/openboard/pkg/datastore"
	"github.com/openboard/openboard/pkg/model"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if err := model.ValidateEmail(req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.store.NonTx().CreateUser(req.Email, hash)
	if err != nil {
		if errors.Is(err, datastore.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user"})
		return
	}

	s.metrics.UsersRegistered.Add(1)
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// handleLogin exchanges form credentials for a bearer token. The credential
// field is called "username" on the wire but carries the account email.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := s.store.NonTx().GetUserByEmail(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup user"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.metrics.LoginsFailed.Add(1)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect email or password"})
		return
	}

	token, err := s.auth.IssueToken(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token"})
		return
	}

	s.metrics.LoginsSucceeded.Add(1)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

type pushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// handleCreatePushToken registers a device push token for the current user.
// Registering the same token again returns the existing record.
func (s *Server) handleCreatePushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	pt, err := s.store.NonTx().CreatePushToken(req.Token, currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store push token"})
		return
	}
	c.JSON(http.StatusCreated, pt)
}
