package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Network1945/backend/internal/auth"
	"github.com/Network1945/backend/internal/domain"
)

const (
	maxUserNameLength = 100
	minPasswordLength = 8
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleSignup(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxUserNameLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be 1-100 characters"})
	}
	if len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	user, err := s.users.Create(c.Request().Context(), req.Name, hash)
	if errors.Is(err, domain.ErrUserExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "name already taken"})
	}
	if err != nil {
		slog.Error("Failed to create user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"ok":   true,
		"user": userResponse{ID: user.ID.String(), Name: user.Name},
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, err := s.users.GetByName(c.Request().Context(), strings.TrimSpace(req.Name))
	if errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		slog.Error("Failed to load user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tokens, err := s.auth.IssueTokens(*user)
	if err != nil {
		slog.Error("Failed to issue tokens", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"user":    userResponse{ID: user.ID.String(), Name: user.Name},
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh token required"})
	}

	userID, err := s.auth.VerifyRefresh(req.Refresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	parsed, err := parseUserID(userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	user, err := s.users.GetByID(c.Request().Context(), parsed)
	if errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err != nil {
		slog.Error("Failed to load user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	tokens, err := s.auth.IssueTokens(*user)
	if err != nil {
		slog.Error("Failed to issue tokens", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"access": tokens.Access})
}
