package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Network1945/backend/internal/domain"
)

const maxRoomTitleLength = 100

type createRoomRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > maxRoomTitleLength {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must be 1-100 characters"})
	}

	userID := c.Get("userID").(uuid.UUID)
	room, err := s.rooms.Create(c.Request().Context(), req.Title, userID)
	if err != nil {
		slog.Error("Failed to create room", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	return c.JSON(http.StatusCreated, room)
}

func (s *Server) handleListRooms(c echo.Context) error {
	rooms, err := s.rooms.List(c.Request().Context())
	if err != nil {
		slog.Error("Failed to list rooms", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return c.JSON(http.StatusOK, rooms)
}

func (s *Server) handleGetRoom(c echo.Context) error {
	room, err := s.rooms.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrRoomNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	if err != nil {
		slog.Error("Failed to get room", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, room)
}
