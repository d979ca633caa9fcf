package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Network1945/backend/internal/auth"
	"github.com/Network1945/backend/internal/config"
	"github.com/Network1945/backend/internal/domain"
)

// UserRepository is the account store. Implemented by database.UserRepo.
type UserRepository interface {
	Create(ctx context.Context, name, passwordHash string) (*domain.User, error)
	GetByName(ctx context.Context, name string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// RoomRepository is the room record store. Implemented by database.RoomRepo.
type RoomRepository interface {
	Create(ctx context.Context, title string, createdBy uuid.UUID) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	Get(ctx context.Context, id string) (*domain.Room, error)
}

// Pinger reports backend connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InstanceLister reports fleet membership for the readiness payload.
// Implemented by coordination.InstanceRegistry. May be nil.
type InstanceLister interface {
	ActiveInstances(ctx context.Context) ([]string, error)
}

// roomSocketHandler serves the websocket route. Implemented by ws.Gateway.
type roomSocketHandler interface {
	HandleRoomSocket(c echo.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	users     UserRepository
	rooms     RoomRepository
	auth      *auth.Service
	gateway   roomSocketHandler
	redis     Pinger
	db        Pinger
	instances InstanceLister
}

func NewServer(cfg *config.Config, users UserRepository, rooms RoomRepository, authSvc *auth.Service, gateway roomSocketHandler, redis, db Pinger, instances InstanceLister) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:      e,
		config:    cfg,
		users:     users,
		rooms:     rooms,
		auth:      authSvc,
		gateway:   gateway,
		redis:     redis,
		db:        db,
		instances: instances,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
