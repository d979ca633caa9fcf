package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

func parseUserID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

// requireAuth validates the Authorization bearer token and stores the caller's
// user id on the context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authorization required"})
		}

		identity, _, err := s.auth.VerifyAccess(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		userID, err := parseUserID(identity)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		c.Set("userID", userID)
		return next(c)
	}
}
