package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx := c.Request().Context()

	checks := echo.Map{"redis": "ok", "database": "ok"}
	healthy := true

	if err := s.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	response := echo.Map{"status": "ok", "checks": checks}
	if s.instances != nil {
		if active, err := s.instances.ActiveInstances(ctx); err == nil {
			response["instances"] = len(active)
		}
	}

	if !healthy {
		response["status"] = "degraded"
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	return c.JSON(http.StatusOK, response)
}
