package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth routes
	s.echo.POST("/auth/signup", s.handleSignup)
	s.echo.POST("/auth/login", s.handleLogin)
	s.echo.POST("/auth/refresh", s.handleRefresh)

	// Room CRUD
	s.echo.POST("/rooms", s.handleCreateRoom, s.requireAuth)
	s.echo.GET("/rooms", s.handleListRooms)
	s.echo.GET("/rooms/:id", s.handleGetRoom)

	// Websocket entry point (token/name resolution happens in the gateway)
	s.echo.GET("/ws/rooms/:room_id", s.gateway.HandleRoomSocket)
}
