package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/Network1945/backend/internal/domain"
	"github.com/Network1945/backend/internal/metrics"
	"github.com/Network1945/backend/internal/session"
)

// roomIDPattern matches the original route constraint for room ids.
var roomIDPattern = regexp.MustCompile(`^[0-9a-zA-Z_-]{1,32}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // browser clients connect from arbitrary origins
	},
}

// IdentityVerifier resolves a bearer token to an authenticated identity.
// Implemented by auth.Service.
type IdentityVerifier interface {
	VerifyAccess(token string) (identity, displayName string, err error)
}

// Config holds the gateway policy knobs.
type Config struct {
	TickInterval   time.Duration
	SendToAll      bool
	AllowAnonymous bool

	// MaxConnections caps concurrent sockets on this instance. Zero disables
	// admission limiting, including the per-IP knobs below.
	MaxConnections int64

	// MaxPerIP caps concurrent sockets per client IP.
	MaxPerIP int

	// DialRate and DialBurst bound how fast one IP may open new sockets.
	DialRate  float64
	DialBurst int
}

// Gateway accepts room websocket connections and drives their sessions.
type Gateway struct {
	store       session.PresenceStore
	broadcaster session.Broadcaster
	verifier    IdentityVerifier
	clock       clockwork.Clock
	cfg         Config
	limits      *ConnLimiter
}

// NewGateway wires the websocket entry point.
func NewGateway(store session.PresenceStore, broadcaster session.Broadcaster, verifier IdentityVerifier, clock clockwork.Clock, cfg Config) *Gateway {
	g := &Gateway{
		store:       store,
		broadcaster: broadcaster,
		verifier:    verifier,
		clock:       clock,
		cfg:         cfg,
	}
	if cfg.MaxConnections > 0 {
		g.limits = NewConnLimiter(clock, cfg.MaxConnections, cfg.MaxPerIP, cfg.DialRate, cfg.DialBurst)
	}
	return g
}

// rejection carries a close code decided before the session was constructed.
type rejection struct {
	code   int
	reason string
}

// HandleRoomSocket serves GET /ws/rooms/:room_id.
//
// The socket is always upgraded first: application-level close codes
// (4400/4401/1011) can only travel on an accepted websocket.
func (g *Gateway) HandleRoomSocket(c echo.Context) error {
	// Admission limits run before the upgrade; a refused dial gets a plain
	// HTTP 429, never a socket.
	if g.limits != nil {
		ip := c.RealIP()
		ok, reason := g.limits.Acquire(ip)
		if !ok {
			metrics.ConnectionsLimited.WithLabelValues(string(reason)).Inc()
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "connection limit exceeded"})
		}
		defer g.limits.Release(ip)
	}

	roomID := c.Param("room_id")
	identity, displayName, ephemeral, reject := g.resolveIdentity(c)

	if reject == nil && !roomIDPattern.MatchString(roomID) {
		reject = &rejection{code: CloseBadRequest, reason: "invalid room id"}
	}

	wsConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade websocket: %w", err)
	}
	conn := NewConn(wsConn, g.clock)

	if reject != nil {
		conn.Close(reject.code, reject.reason)
		return nil
	}

	sess := session.New(roomID, identity, displayName, g.store, g.broadcaster, conn, g.clock, session.Config{
		TickInterval: g.cfg.TickInterval,
		SendToAll:    g.cfg.SendToAll,
		Ephemeral:    ephemeral,
	})

	if err := sess.Join(c.Request().Context()); err != nil {
		conn.Close(joinCloseCode(err), "join failed")
		return nil
	}

	// Read pump: blocks until the client or transport closes the socket.
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		sess.HandleMessage(c.Request().Context(), data)
	}

	// The request context is done once the handler unwinds; teardown gets its
	// own deadline so best-effort cleanup still reaches the store.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess.Close(ctx)

	conn.Close(CloseNormal, "")
	return nil
}

// resolveIdentity derives (identity, displayName) from the connection, or a
// rejection when neither credential path yields one. ephemeral reports a
// client-chosen name identity, as opposed to a server-issued id from a token.
func (g *Gateway) resolveIdentity(c echo.Context) (identity, displayName string, ephemeral bool, reject *rejection) {
	if token := c.QueryParam("token"); token != "" {
		id, name, err := g.verifier.VerifyAccess(token)
		if err != nil {
			metrics.SessionsJoined.WithLabelValues("rejected_auth").Inc()
			return "", "", false, &rejection{code: CloseUnauthorized, reason: "authentication failed"}
		}
		return id, name, false, nil
	}

	if g.cfg.AllowAnonymous {
		name := strings.TrimSpace(c.QueryParam("name"))
		if name == "" {
			return "", "", true, &rejection{code: CloseBadRequest, reason: "name required"}
		}
		if len(name) > domain.MaxNameLength {
			return "", "", true, &rejection{code: CloseBadRequest, reason: "name too long"}
		}
		return name, name, true, nil
	}

	metrics.SessionsJoined.WithLabelValues("rejected_auth").Inc()
	return "", "", false, &rejection{code: CloseUnauthorized, reason: "authentication required"}
}

// joinCloseCode maps a Join error to its close code. Validation errors are bad
// requests; anything else is a store failure at join time.
func joinCloseCode(err error) int {
	if errors.Is(err, session.ErrIdentityMissing) || errors.Is(err, session.ErrIdentityTooLong) {
		return CloseBadRequest
	}
	return CloseInternal
}
